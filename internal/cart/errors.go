package cart

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const detailAvailableStock = "available_stock"

// InsufficientStock builds the blocking error returned when the backend cannot supply a quantity.
func InsufficientStock(productID string, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only %d available", available)).
		WithDetails(map[string]any{
			detailAvailableStock: available,
			"product_id":         productID,
		})
}

// AvailableStock extracts the available quantity from an InsufficientStock error.
func AvailableStock(err error) (int, bool) {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		return 0, false
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return 0, false
	}
	n, ok := details[detailAvailableStock].(int)
	return n, ok
}
