package cart

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Product describes what is being added to the cart.
type Product struct {
	ProductID         string
	Name              string
	UnitPrice         decimal.Decimal
	DeliveryUnitPrice decimal.Decimal
}

func (p Product) validate() error {
	if strings.TrimSpace(p.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if p.UnitPrice.IsNegative() || p.DeliveryUnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must be non-negative")
	}
	return nil
}

// Line is one product held in the cart.
type Line struct {
	ProductID         string          `json:"productId"`
	Name              string          `json:"name"`
	UnitPrice         decimal.Decimal `json:"price"`
	DeliveryUnitPrice decimal.Decimal `json:"deliveryPrice"`
	Quantity          int             `json:"quantity"`
	AddedAt           time.Time       `json:"addedAt"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DeliveryTotal is delivery price times quantity.
func (l Line) DeliveryTotal() decimal.Decimal {
	return l.DeliveryUnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// decodeLines parses a persisted cart. Anything other than an array of well-formed, unique lines is rejected.
func decodeLines(raw string) ([]Line, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("stored cart is not an array")
	}
	var lines []Line
	if err := json.Unmarshal([]byte(trimmed), &lines); err != nil {
		return nil, fmt.Errorf("decode stored cart: %w", err)
	}
	seen := make(map[string]struct{}, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return nil, fmt.Errorf("line %d: missing product id", i)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("line %d: quantity %d below one", i, line.Quantity)
		}
		if line.UnitPrice.IsNegative() || line.DeliveryUnitPrice.IsNegative() {
			return nil, fmt.Errorf("line %d: negative price", i)
		}
		if _, dup := seen[line.ProductID]; dup {
			return nil, fmt.Errorf("line %d: duplicate product %s", i, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}
	return lines, nil
}
