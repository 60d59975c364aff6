package enums

import "fmt"

// SortKey orders catalog results.
type SortKey string

const (
	SortPopular   SortKey = "popular"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortName      SortKey = "name"
)

var validSortKeys = []SortKey{
	SortPopular,
	SortPriceLow,
	SortPriceHigh,
	SortRating,
	SortName,
}

// SortKeys lists every sort option in display order.
func SortKeys() []SortKey {
	out := make([]SortKey, len(validSortKeys))
	copy(out, validSortKeys)
	return out
}

func (s SortKey) String() string {
	return string(s)
}

func (s SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into a SortKey; empty input means popular.
func ParseSortKey(value string) (SortKey, error) {
	if value == "" {
		return SortPopular, nil
	}
	for _, candidate := range validSortKeys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}
