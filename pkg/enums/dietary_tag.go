package enums

import "fmt"

// DietaryTag labels a cake with a dietary property.
type DietaryTag string

const (
	DietaryVegan        DietaryTag = "Vegan"
	DietaryGlutenFree   DietaryTag = "Gluten-Free"
	DietaryDairyFree    DietaryTag = "Dairy-Free"
	DietaryContainsNuts DietaryTag = "Contains Nuts"
)

var validDietaryTags = []DietaryTag{
	DietaryVegan,
	DietaryGlutenFree,
	DietaryDairyFree,
	DietaryContainsNuts,
}

// DietaryTags lists the tags in filter display order.
func DietaryTags() []DietaryTag {
	out := make([]DietaryTag, len(validDietaryTags))
	copy(out, validDietaryTags)
	return out
}

func (d DietaryTag) String() string {
	return string(d)
}

func (d DietaryTag) IsValid() bool {
	for _, candidate := range validDietaryTags {
		if candidate == d {
			return true
		}
	}
	return false
}

func ParseDietaryTag(value string) (DietaryTag, error) {
	for _, candidate := range validDietaryTags {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dietary tag %q", value)
}
