package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	"github.com/angelmondragon/sweetdelights-backend/api/validators"
	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

const maxFilterValueLen = 64

// CatalogReader is the read-only catalog surface the storefront routes need.
type CatalogReader interface {
	All() []catalog.Cake
	Get(id string) (catalog.Cake, error)
	Featured(n int) []catalog.Cake
	Related(id string, n int) ([]catalog.Cake, error)
	Options() catalog.Options
}

type catalogPage struct {
	Items []catalog.Cake `json:"items"`
	Count int            `json:"count"`
	Total int            `json:"total"`
}

type cakeDetail struct {
	Cake    catalog.Cake   `json:"cake"`
	Related []catalog.Cake `json:"related"`
}

// CatalogList filters and sorts the catalog from query parameters.
func CatalogList(cat CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		all := cat.All()
		items := catalog.Apply(all, filter)
		responses.WriteSuccess(w, catalogPage{Items: items, Count: len(items), Total: len(all)})
	}
}

func CatalogOptions(cat CatalogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, cat.Options())
	}
}

func CatalogFeatured(cat CatalogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, cat.Featured(catalog.FeaturedCount))
	}
}

// CatalogDetail returns one cake and the cakes related to it.
func CatalogDetail(cat CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "productId")
		cake, err := cat.Get(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		related, err := cat.Related(id, catalog.RelatedCount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cakeDetail{Cake: cake, Related: related})
	}
}

func parseFilter(r *http.Request) (catalog.Filter, error) {
	filter := catalog.DefaultFilter()
	if v := validators.SanitizeString(r.URL.Query().Get("flavor"), maxFilterValueLen); v != "" {
		filter.Flavor = v
	}
	if v := validators.SanitizeString(r.URL.Query().Get("occasion"), maxFilterValueLen); v != "" {
		filter.Occasion = v
	}
	if v := validators.SanitizeString(r.URL.Query().Get("dietary"), maxFilterValueLen); v != "" && v != catalog.All {
		tag, err := enums.ParseDietaryTag(v)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "unknown dietary filter").WithDetails(map[string]any{"field": "dietary"})
		}
		filter.Dietary = tag.String()
	}

	var err error
	if filter.MinPrice, err = validators.ParseQueryDecimal(r, "minPrice", filter.MinPrice); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = validators.ParseQueryDecimal(r, "maxPrice", filter.MaxPrice); err != nil {
		return filter, err
	}

	sortKey, err := enums.ParseSortKey(validators.QueryString(r, "sort"))
	if err != nil {
		return filter, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort").WithDetails(map[string]any{"field": "sort"})
	}
	filter.Sort = sortKey
	return filter, nil
}
