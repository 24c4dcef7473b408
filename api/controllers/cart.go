package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// CartService is the cart state shared by every view.
type CartService interface {
	Snapshot() cart.Snapshot
	AddToCart(ctx context.Context, p cart.Product) (cart.Line, error)
	UpdateQuantity(ctx context.Context, productID string, quantity int) (cart.Line, error)
	RemoveFromCart(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
	ValidateCart(ctx context.Context, lines []cart.Line) (*backend.CartVerdict, error)
	CheckStock(ctx context.Context, productID string, quantity int) cart.Availability
}

// ErrorFeed receives user-facing errors so the UI can show them as notifications.
type ErrorFeed interface {
	PushError(err error) notify.Notification
}

type addItemRequest struct {
	ProductID     string          `json:"productId" validate:"required,max=128"`
	Name          string          `json:"name" validate:"required,max=256"`
	Price         decimal.Decimal `json:"price"`
	DeliveryPrice decimal.Decimal `json:"deliveryPrice"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartLineResponse struct {
	Line cart.Line     `json:"line"`
	Cart cart.Snapshot `json:"cart"`
}

// CartFetch returns the cart with its totals.
func CartFetch(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Snapshot())
	}
}

// CartAddItem adds one unit of a product after a stock check.
func CartAddItem(svc CartService, feed ErrorFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddToCart(r.Context(), cart.Product{
			ProductID:         strings.TrimSpace(payload.ProductID),
			Name:              validators.SanitizeString(payload.Name, 256),
			UnitPrice:         payload.Price,
			DeliveryUnitPrice: payload.DeliveryPrice,
		})
		if err != nil {
			writeCartError(r.Context(), logg, feed, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cartLineResponse{Line: line, Cart: svc.Snapshot()})
	}
}

// CartUpdateItem sets the quantity of a line. Zero or less removes it.
func CartUpdateItem(svc CartService, feed ErrorFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId is required"))
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.UpdateQuantity(r.Context(), productID, *payload.Quantity)
		if err != nil {
			writeCartError(r.Context(), logg, feed, w, err)
			return
		}
		responses.WriteSuccess(w, cartLineResponse{Line: line, Cart: svc.Snapshot()})
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if err := svc.RemoveFromCart(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Snapshot())
	}
}

// CartClear empties the cart.
func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		if err := svc.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Snapshot())
	}
}

// CartValidate asks the backend to check the whole cart against current catalog prices.
func CartValidate(svc CartService, feed ErrorFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		verdict, err := svc.ValidateCart(r.Context(), nil)
		if err != nil {
			writeCartError(r.Context(), logg, feed, w, err)
			return
		}
		responses.WriteSuccess(w, verdict)
	}
}

const maxStockQuantity = 10000

// CartStock reports availability for a product. Backend failures are reported as assumed availability.
func CartStock(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId is required"))
			return
		}
		quantity, err := validators.ParseQueryInt(r, validators.IntParam{Key: "quantity", Min: 1, Max: maxStockQuantity, Required: true})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.CheckStock(r.Context(), productID, quantity))
	}
}

func writeCartError(ctx context.Context, logg *logger.Logger, feed ErrorFeed, w http.ResponseWriter, err error) {
	if feed != nil {
		feed.PushError(err)
	}
	responses.WriteError(ctx, logg, w, err)
}
