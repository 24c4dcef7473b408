package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const maxSearchItems = 500

type catalogSearchRequest struct {
	Items []catalog.Item `json:"items" validate:"max=500"`
	Query catalog.Query  `json:"query"`
}

type catalogSearchResponse struct {
	Items []catalog.Item `json:"items"`
	Count int            `json:"count"`
}

type catalogCartRequest struct {
	Item catalog.Item `json:"item"`
}

// CatalogSearch filters and sorts a page of listings the UI already fetched.
func CatalogSearch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload catalogSearchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if kind := payload.Query.Kind; kind != nil && !kind.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind").
				WithDetails(map[string]any{"kind": *kind}))
			return
		}
		if len(payload.Items) > maxSearchItems {
			payload.Items = payload.Items[:maxSearchItems]
		}
		items := catalog.Filter(payload.Items, payload.Query)
		responses.WriteSuccess(w, catalogSearchResponse{Items: items, Count: len(items)})
	}
}

// CatalogAddToCart puts a product or aliment listing into the cart.
func CatalogAddToCart(svc CartService, feed ErrorFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		var payload catalogCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := payload.Item.Validate(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := payload.Item.CartProduct()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.AddToCart(r.Context(), product)
		if err != nil {
			writeCartError(r.Context(), logg, feed, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cartLineResponse{Line: line, Cart: svc.Snapshot()})
	}
}
