package catalog

import (
	_ "embed"
	"fmt"

	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// FeaturedCount is how many cakes the home page highlights.
	FeaturedCount = 6
	// RelatedCount caps the related cakes shown on a detail page.
	RelatedCount = 3
	// All disables a filter dimension.
	All = "All"
)

// DefaultMaxPrice is the upper bound of the price slider.
var DefaultMaxPrice = decimal.NewFromInt(150)

//go:embed data/cakes.yaml
var cakesYAML []byte

type document struct {
	Cakes []Cake `yaml:"cakes"`
}

// Provider serves the read-only cake catalog.
type Provider struct {
	cakes []Cake
	byID  map[string]int
}

// Options lists the values the catalog filters accept.
type Options struct {
	Flavors   []string        `json:"flavors"`
	Occasions []string        `json:"occasions"`
	Dietary   []string        `json:"dietary"`
	SortKeys  []enums.SortKey `json:"sortKeys"`
	MinPrice  decimal.Decimal `json:"minPrice"`
	MaxPrice  decimal.Decimal `json:"maxPrice"`
}

// Load parses the embedded catalog.
func Load() (*Provider, error) {
	return Parse(cakesYAML)
}

// Parse builds a provider from a YAML catalog document.
func Parse(raw []byte) (*Provider, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return New(doc.Cakes)
}

// New validates cakes and indexes them by id, preserving order.
func New(cakes []Cake) (*Provider, error) {
	p := &Provider{
		cakes: make([]Cake, 0, len(cakes)),
		byID:  make(map[string]int, len(cakes)),
	}
	for _, c := range cakes {
		if err := validateCake(c); err != nil {
			return nil, err
		}
		if _, dup := p.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate cake id %q", c.ID)
		}
		p.byID[c.ID] = len(p.cakes)
		p.cakes = append(p.cakes, c)
	}
	return p, nil
}

func validateCake(c Cake) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("cake %q has no id", c.Name)
	case c.Name == "":
		return fmt.Errorf("cake %s has no name", c.ID)
	case c.Price.IsNegative():
		return fmt.Errorf("cake %s has a negative price", c.ID)
	case len(c.Sizes) == 0:
		return fmt.Errorf("cake %s has no sizes", c.ID)
	case len(c.FrostingOptions) == 0:
		return fmt.Errorf("cake %s has no frosting options", c.ID)
	}
	for _, tag := range c.DietaryInfo {
		if !tag.IsValid() {
			return fmt.Errorf("cake %s has unknown dietary tag %q", c.ID, tag)
		}
	}
	return nil
}

// All returns every cake in catalog order.
func (p *Provider) All() []Cake {
	out := make([]Cake, len(p.cakes))
	copy(out, p.cakes)
	return out
}

func (p *Provider) Count() int {
	return len(p.cakes)
}

// Get returns the cake with id or a CodeNotFound error.
func (p *Provider) Get(id string) (Cake, error) {
	idx, ok := p.byID[id]
	if !ok {
		return Cake{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "cake %q not found", id).WithDetails(map[string]any{"id": id})
	}
	return p.cakes[idx], nil
}

// Featured returns the first n cakes in catalog order.
func (p *Provider) Featured(n int) []Cake {
	if n < 0 {
		n = 0
	}
	if n > len(p.cakes) {
		n = len(p.cakes)
	}
	return p.All()[:n]
}

// Related returns up to n cakes sharing the flavor or the category of id.
func (p *Provider) Related(id string, n int) ([]Cake, error) {
	cake, err := p.Get(id)
	if err != nil {
		return nil, err
	}
	related := []Cake{}
	for _, c := range p.cakes {
		if len(related) >= n {
			break
		}
		if c.ID == cake.ID {
			continue
		}
		if c.Flavor == cake.Flavor || c.Category == cake.Category {
			related = append(related, c)
		}
	}
	return related, nil
}

// Options derives flavor and occasion choices from the data in first-seen order.
func (p *Provider) Options() Options {
	opts := Options{
		Flavors:   []string{All},
		Occasions: []string{All},
		Dietary:   []string{All},
		SortKeys:  enums.SortKeys(),
		MinPrice:  decimal.Zero,
		MaxPrice:  DefaultMaxPrice,
	}
	seenFlavor := map[string]bool{}
	seenOccasion := map[string]bool{}
	for _, c := range p.cakes {
		if !seenFlavor[c.Flavor] {
			seenFlavor[c.Flavor] = true
			opts.Flavors = append(opts.Flavors, c.Flavor)
		}
		if !seenOccasion[c.Occasion] {
			seenOccasion[c.Occasion] = true
			opts.Occasions = append(opts.Occasions, c.Occasion)
		}
	}
	for _, tag := range enums.DietaryTags() {
		opts.Dietary = append(opts.Dietary, tag.String())
	}
	return opts
}
