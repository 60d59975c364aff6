package catalog

import (
	"sort"

	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter narrows and orders the catalog. Empty strings and "All" disable a
// dimension; the price bounds are always applied, so start from DefaultFilter.
type Filter struct {
	Flavor   string
	Occasion string
	Dietary  string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	Sort     enums.SortKey
}

// DefaultFilter matches everything with the default price range and popular sort.
func DefaultFilter() Filter {
	return Filter{
		Flavor:   All,
		Occasion: All,
		Dietary:  All,
		MinPrice: decimal.Zero,
		MaxPrice: DefaultMaxPrice,
		Sort:     enums.SortPopular,
	}
}

// Matches applies every predicate of f to c.
func (f Filter) Matches(c Cake) bool {
	if !isAll(f.Flavor) && c.Flavor != f.Flavor {
		return false
	}
	if !isAll(f.Occasion) && c.Occasion != f.Occasion {
		return false
	}
	if !isAll(f.Dietary) && !c.HasDietary(enums.DietaryTag(f.Dietary)) {
		return false
	}
	return c.Price.GreaterThanOrEqual(f.MinPrice) && c.Price.LessThanOrEqual(f.MaxPrice)
}

// Apply returns the cakes matching f, stably sorted by f.Sort. The input is not modified.
func Apply(cakes []Cake, f Filter) []Cake {
	out := make([]Cake, 0, len(cakes))
	for _, c := range cakes {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	sortCakes(out, f.Sort)
	return out
}

func sortCakes(cakes []Cake, key enums.SortKey) {
	var less func(a, b Cake) bool
	switch key {
	case enums.SortPriceLow:
		less = func(a, b Cake) bool { return a.Price.LessThan(b.Price) }
	case enums.SortPriceHigh:
		less = func(a, b Cake) bool { return a.Price.GreaterThan(b.Price) }
	case enums.SortRating:
		less = func(a, b Cake) bool { return a.Rating > b.Rating }
	case enums.SortName:
		coll := collate.New(language.English, collate.IgnoreCase)
		less = func(a, b Cake) bool { return coll.CompareString(a.Name, b.Name) < 0 }
	default:
		less = func(a, b Cake) bool { return a.Reviews > b.Reviews }
	}
	sort.SliceStable(cakes, func(i, j int) bool { return less(cakes[i], cakes[j]) })
}

func isAll(v string) bool {
	return v == "" || v == All
}
