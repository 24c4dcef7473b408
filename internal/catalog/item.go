// Package catalog models the marketplace listings shown next to the cart.
package catalog

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Service is a home, utility or partner service offered by a provider.
type Service struct {
	Name       string          `json:"name" validate:"required"`
	Provider   string          `json:"provider,omitempty"`
	Category   string          `json:"category,omitempty"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Location   string          `json:"location,omitempty"`
}

// Property is a real estate listing.
type Property struct {
	Title       string          `json:"title" validate:"required"`
	ListingType string          `json:"listingType,omitempty" validate:"omitempty,oneof=sale rent"`
	Price       decimal.Decimal `json:"price"`
	City        string          `json:"city,omitempty"`
	Bedrooms    int             `json:"bedrooms,omitempty" validate:"gte=0"`
	SurfaceM2   int             `json:"surface,omitempty" validate:"gte=0"`
}

// Product is a general merchandise item that can be shipped.
type Product struct {
	Name          string          `json:"name" validate:"required"`
	Category      string          `json:"category,omitempty"`
	Price         decimal.Decimal `json:"price"`
	DeliveryPrice decimal.Decimal `json:"deliveryPrice"`
	Stock         int             `json:"stock,omitempty" validate:"gte=0"`
}

// Aliment is a food item from the alimentation catalog.
type Aliment struct {
	Name          string          `json:"name" validate:"required"`
	Unit          string          `json:"unit,omitempty"`
	Origin        string          `json:"origin,omitempty"`
	Price         decimal.Decimal `json:"price"`
	DeliveryPrice decimal.Decimal `json:"deliveryPrice"`
}

// Item is one listing. Kind selects the single populated payload.
type Item struct {
	ID       string         `json:"id" validate:"required"`
	Kind     enums.ItemKind `json:"kind" validate:"required"`
	Service  *Service       `json:"service,omitempty"`
	Property *Property      `json:"property,omitempty"`
	Product  *Product       `json:"product,omitempty"`
	Aliment  *Aliment       `json:"aliment,omitempty"`
}

// Validate checks that exactly the payload named by Kind is present and well-formed.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if !i.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item kind %q", i.Kind))
	}
	if n := i.payloadCount(); n != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item must carry exactly one payload").
			WithDetails(map[string]any{"id": i.ID, "payloads": n})
	}

	var (
		name  string
		price decimal.Decimal
		ok    bool
	)
	switch i.Kind {
	case enums.ItemKindService:
		if i.Service != nil {
			name, price, ok = i.Service.Name, i.Service.HourlyRate, true
		}
	case enums.ItemKindProperty:
		if i.Property != nil {
			name, price, ok = i.Property.Title, i.Property.Price, true
		}
	case enums.ItemKindProduct:
		if i.Product != nil {
			name, price, ok = i.Product.Name, decimal.Min(i.Product.Price, i.Product.DeliveryPrice), true
		}
	case enums.ItemKindAliment:
		if i.Aliment != nil {
			name, price, ok = i.Aliment.Name, decimal.Min(i.Aliment.Price, i.Aliment.DeliveryPrice), true
		}
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s item is missing its payload", i.Kind))
	}
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item title is required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "item prices must be non-negative")
	}
	return nil
}

func (i Item) payloadCount() int {
	n := 0
	for _, present := range []bool{i.Service != nil, i.Property != nil, i.Product != nil, i.Aliment != nil} {
		if present {
			n++
		}
	}
	return n
}

// Title is the display name of the listing.
func (i Item) Title() string {
	switch i.Kind {
	case enums.ItemKindService:
		if i.Service != nil {
			return i.Service.Name
		}
	case enums.ItemKindProperty:
		if i.Property != nil {
			return i.Property.Title
		}
	case enums.ItemKindProduct:
		if i.Product != nil {
			return i.Product.Name
		}
	case enums.ItemKindAliment:
		if i.Aliment != nil {
			return i.Aliment.Name
		}
	}
	return ""
}

// Price is the headline price. For services it is the hourly rate.
func (i Item) Price() decimal.Decimal {
	switch i.Kind {
	case enums.ItemKindService:
		if i.Service != nil {
			return i.Service.HourlyRate
		}
	case enums.ItemKindProperty:
		if i.Property != nil {
			return i.Property.Price
		}
	case enums.ItemKindProduct:
		if i.Product != nil {
			return i.Product.Price
		}
	case enums.ItemKindAliment:
		if i.Aliment != nil {
			return i.Aliment.Price
		}
	}
	return decimal.Zero
}

// searchText is the lowercased text matched by free-text queries.
func (i Item) searchText() string {
	parts := []string{i.Title()}
	switch {
	case i.Service != nil:
		parts = append(parts, i.Service.Provider, i.Service.Category, i.Service.Location)
	case i.Property != nil:
		parts = append(parts, i.Property.City, i.Property.ListingType)
	case i.Product != nil:
		parts = append(parts, i.Product.Category)
	case i.Aliment != nil:
		parts = append(parts, i.Aliment.Origin, i.Aliment.Unit)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Cartable reports whether the item can go into the shopping cart.
func (i Item) Cartable() bool {
	return (i.Kind == enums.ItemKindProduct && i.Product != nil) ||
		(i.Kind == enums.ItemKindAliment && i.Aliment != nil)
}

// CartProduct converts a product or aliment listing into what the cart accepts.
func (i Item) CartProduct() (cart.Product, error) {
	switch {
	case i.Kind == enums.ItemKindProduct && i.Product != nil:
		return cart.Product{
			ProductID:         i.ID,
			Name:              i.Product.Name,
			UnitPrice:         i.Product.Price,
			DeliveryUnitPrice: i.Product.DeliveryPrice,
		}, nil
	case i.Kind == enums.ItemKindAliment && i.Aliment != nil:
		return cart.Product{
			ProductID:         i.ID,
			Name:              i.Aliment.Name,
			UnitPrice:         i.Aliment.Price,
			DeliveryUnitPrice: i.Aliment.DeliveryPrice,
		}, nil
	}
	return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s items cannot be added to the cart", i.Kind)).
		WithDetails(map[string]any{"id": i.ID, "kind": i.Kind})
}
