package types

import "strings"

// DefaultCountry is sent when the free-text address does not name one.
const DefaultCountry = "Sénégal"

// ShippingAddress is the decomposed delivery address sent with an order.
type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Normalized trims every field and fills the default country.
func (a ShippingAddress) Normalized() ShippingAddress {
	out := ShippingAddress{
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}
