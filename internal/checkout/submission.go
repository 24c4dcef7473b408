package checkout

import (
	"strings"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/google/uuid"
)

// OrderSubmission is the snapshot sent to the backend. It is built once per attempt and never edited.
type OrderSubmission struct {
	Reference       string                `json:"reference"`
	Items           []backend.OrderItem   `json:"items"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	Coordinates     types.GeoPoint        `json:"coordinates"`
	CustomerInfo    backend.CustomerInfo  `json:"customerInfo"`
	PaymentMethod   string                `json:"paymentMethod"`
}

func buildSubmission(lines []cart.Line, addr address.DeliveryAddress, profile session.Profile, paymentMethod, country string) OrderSubmission {
	items := make([]backend.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, backend.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	text := strings.TrimSpace(addr.Text)
	city, postal := address.ParseCityPostal(text)
	return OrderSubmission{
		Reference: uuid.NewString(),
		Items:     items,
		ShippingAddress: types.ShippingAddress{
			Address:    text,
			City:       city,
			PostalCode: postal,
			Country:    country,
		}.Normalized(),
		Coordinates: addr.Coordinates,
		CustomerInfo: backend.CustomerInfo{
			Name:  strings.TrimSpace(profile.Name),
			Phone: strings.TrimSpace(profile.Phone),
			Email: strings.TrimSpace(profile.Email),
		},
		PaymentMethod: paymentMethod,
	}
}

func (s OrderSubmission) request() backend.CreateOrderRequest {
	return backend.CreateOrderRequest{
		Items:           append([]backend.OrderItem(nil), s.Items...),
		ShippingAddress: s.ShippingAddress,
		Coordinates:     s.Coordinates,
		CustomerInfo:    s.CustomerInfo,
		PaymentMethod:   s.PaymentMethod,
	}
}
