package catalog

import (
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Cake is one catalog product. Records are loaded once and never mutated.
type Cake struct {
	ID              string             `json:"id" yaml:"id"`
	Name            string             `json:"name" yaml:"name"`
	Description     string             `json:"description" yaml:"description"`
	Price           decimal.Decimal    `json:"price" yaml:"price"`
	Category        string             `json:"category" yaml:"category"`
	Flavor          string             `json:"flavor" yaml:"flavor"`
	Occasion        string             `json:"occasion" yaml:"occasion"`
	DietaryInfo     []enums.DietaryTag `json:"dietaryInfo" yaml:"dietary_info"`
	Images          []string           `json:"images" yaml:"images"`
	Sizes           []Size             `json:"sizes" yaml:"sizes"`
	FrostingOptions []string           `json:"frostingOptions" yaml:"frosting_options"`
	Rating          float64            `json:"rating" yaml:"rating"`
	Reviews         int                `json:"reviews" yaml:"reviews"`
}

// Size is a purchasable size variant with its own price.
type Size struct {
	Size  string          `json:"size" yaml:"size"`
	Price decimal.Decimal `json:"price" yaml:"price"`
}

// PriceFor returns the price of the named size. Unknown sizes and sizes
// priced at zero fall back to the base price.
func (c Cake) PriceFor(size string) decimal.Decimal {
	for _, s := range c.Sizes {
		if s.Size == size && !s.Price.IsZero() {
			return s.Price
		}
	}
	return c.Price
}

// HasSize reports whether size is one of the cake's variants.
func (c Cake) HasSize(size string) bool {
	for _, s := range c.Sizes {
		if s.Size == size {
			return true
		}
	}
	return false
}

func (c Cake) HasFrosting(frosting string) bool {
	for _, f := range c.FrostingOptions {
		if f == frosting {
			return true
		}
	}
	return false
}

func (c Cake) HasDietary(tag enums.DietaryTag) bool {
	for _, t := range c.DietaryInfo {
		if t == tag {
			return true
		}
	}
	return false
}

// DefaultSize is the first size variant; quick add uses it.
func (c Cake) DefaultSize() string {
	if len(c.Sizes) == 0 {
		return ""
	}
	return c.Sizes[0].Size
}

// DefaultFrosting is the first frosting option; quick add uses it.
func (c Cake) DefaultFrosting() string {
	if len(c.FrostingOptions) == 0 {
		return ""
	}
	return c.FrostingOptions[0]
}
