package enums

import "fmt"

// ItemKind discriminates catalog item variants.
type ItemKind string

const (
	ItemKindService  ItemKind = "service"
	ItemKindProperty ItemKind = "property"
	ItemKindProduct  ItemKind = "product"
	ItemKindAliment  ItemKind = "aliment"
)

var validItemKinds = []ItemKind{
	ItemKindService,
	ItemKindProperty,
	ItemKindProduct,
	ItemKindAliment,
}

// String implements fmt.Stringer.
func (i ItemKind) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemKind.
func (i ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemKind converts raw input into a ItemKind.
func ParseItemKind(value string) (ItemKind, error) {
	for _, candidate := range validItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}
