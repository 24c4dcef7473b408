package enums

import "fmt"

// AddressSource records where the current delivery address came from.
type AddressSource string

const (
	AddressSourceUserTyped  AddressSource = "user-typed"
	AddressSourceProfile    AddressSource = "profile"
	AddressSourceMapClick   AddressSource = "map-click"
	AddressSourceMarkerDrag AddressSource = "marker-drag"
)

var validAddressSources = []AddressSource{
	AddressSourceUserTyped,
	AddressSourceProfile,
	AddressSourceMapClick,
	AddressSourceMarkerDrag,
}

// String implements fmt.Stringer.
func (a AddressSource) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AddressSource.
func (a AddressSource) IsValid() bool {
	for _, candidate := range validAddressSources {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddressSource converts raw input into a AddressSource.
func ParseAddressSource(value string) (AddressSource, error) {
	for _, candidate := range validAddressSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address source %q", value)
}
