package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
)

var validFormats = []string{"text", "json"}

type rootOptions struct {
	format string
	file   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Inspect the Sweet Delights cake catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.format, validFormats)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.file, "file", "", "catalog YAML to read instead of the embedded one")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newOptionsCommand(opts))
	return cmd
}

func (o *rootOptions) provider() (*catalog.Provider, error) {
	if o.file == "" {
		return catalog.Load()
	}
	raw, err := os.ReadFile(o.file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", o.file, err)
	}
	return catalog.Parse(raw)
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		flavor, occasion, dietary, sortKey string
		minPrice, maxPrice                 string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cakes matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := opts.provider()
			if err != nil {
				return err
			}
			filter := catalog.DefaultFilter()
			filter.Flavor = flavor
			filter.Occasion = occasion
			if dietary != catalog.All {
				tag, err := enums.ParseDietaryTag(dietary)
				if err != nil {
					return err
				}
				filter.Dietary = string(tag)
			}
			if filter.Sort, err = enums.ParseSortKey(sortKey); err != nil {
				return err
			}
			if filter.MinPrice, err = decimal.NewFromString(minPrice); err != nil {
				return fmt.Errorf("invalid --min-price: %w", err)
			}
			if filter.MaxPrice, err = decimal.NewFromString(maxPrice); err != nil {
				return fmt.Errorf("invalid --max-price: %w", err)
			}

			cakes := catalog.Apply(provider.All(), filter)
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), cakes)
			}
			return writeCakeTable(cmd.OutOrStdout(), cakes)
		},
	}

	cmd.Flags().StringVar(&flavor, "flavor", catalog.All, "flavor to match")
	cmd.Flags().StringVar(&occasion, "occasion", catalog.All, "occasion to match")
	cmd.Flags().StringVar(&dietary, "dietary", catalog.All, "dietary tag to require")
	cmd.Flags().StringVar(&sortKey, "sort", string(enums.SortPopular), "sort order")
	cmd.Flags().StringVar(&minPrice, "min-price", "0", "lowest base price")
	cmd.Flags().StringVar(&maxPrice, "max-price", catalog.DefaultMaxPrice.String(), "highest base price")
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one cake with its sizes, frostings and related cakes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := opts.provider()
			if err != nil {
				return err
			}
			cake, err := provider.Get(args[0])
			if err != nil {
				return err
			}
			related, err := provider.Related(cake.ID, catalog.RelatedCount)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"cake": cake, "related": related})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%s) $%s\n", cake.Name, cake.ID, cake.Price.StringFixed(2))
			fmt.Fprintf(out, "%s\n\n", cake.Description)
			fmt.Fprintf(out, "flavor: %s  occasion: %s  rating: %.1f (%d reviews)\n", cake.Flavor, cake.Occasion, cake.Rating, cake.Reviews)
			for _, size := range cake.Sizes {
				fmt.Fprintf(out, "  size %-10s $%s\n", size.Size, size.Price.StringFixed(2))
			}
			fmt.Fprintf(out, "frostings: %s\n", strings.Join(cake.FrostingOptions, ", "))
			if len(related) > 0 {
				fmt.Fprintln(out, "\nrelated:")
				return writeCakeTable(out, related)
			}
			return nil
		},
	}
}

func newOptionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the filter values the catalog accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := opts.provider()
			if err != nil {
				return err
			}
			options := provider.Options()
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), options)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flavors:   %s\n", strings.Join(options.Flavors, ", "))
			fmt.Fprintf(out, "occasions: %s\n", strings.Join(options.Occasions, ", "))
			fmt.Fprintf(out, "dietary:   %s\n", strings.Join(options.Dietary, ", "))
			keys := make([]string, 0, len(options.SortKeys))
			for _, k := range options.SortKeys {
				keys = append(keys, string(k))
			}
			fmt.Fprintf(out, "sort:      %s\n", strings.Join(keys, ", "))
			fmt.Fprintf(out, "price:     %s-%s\n", options.MinPrice.String(), options.MaxPrice.String())
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCakeTable(w io.Writer, cakes []catalog.Cake) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFLAVOR\tOCCASION\tPRICE\tRATING")
	for _, c := range cakes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\n", c.ID, c.Name, c.Flavor, c.Occasion, c.Price.StringFixed(2), c.Rating)
	}
	return tw.Flush()
}
