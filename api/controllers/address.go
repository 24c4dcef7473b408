package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/address"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const maxAddressLength = 512

// AddressTracker is the delivery address state behind the checkout form.
type AddressTracker interface {
	Current() address.DeliveryAddress
	OnTextInput(text string) address.DeliveryAddress
	OnMapClick(ctx context.Context, lat, lng float64) (address.DeliveryAddress, error)
	OnMarkerDrag(lat, lng float64) (address.DeliveryAddress, error)
	OnMarkerDragEnd(ctx context.Context, lat, lng float64) (address.DeliveryAddress, error)
}

type addressTextRequest struct {
	Text string `json:"text" validate:"max=512"`
}

type pinRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type markerRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
	// Final marks the end of a drag; only then is the address looked up.
	Final bool `json:"final"`
}

// AddressFetch returns the delivery address being edited.
func AddressFetch(tracker AddressTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address unavailable"))
			return
		}
		responses.WriteSuccess(w, tracker.Current())
	}
}

// AddressInput records typed text. Coordinates follow once the debounced lookup resolves.
func AddressInput(tracker AddressTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address unavailable"))
			return
		}
		var payload addressTextRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tracker.OnTextInput(validators.SanitizeString(payload.Text, maxAddressLength)))
	}
}

// AddressMapClick places the pin where the map was clicked and looks up its address.
func AddressMapClick(tracker AddressTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address unavailable"))
			return
		}
		var payload pinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addr, err := tracker.OnMapClick(r.Context(), payload.Lat, payload.Lng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addr)
	}
}

// AddressMarker follows a marker drag. Intermediate positions only move the pin.
func AddressMarker(tracker AddressTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address unavailable"))
			return
		}
		var payload markerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			addr address.DeliveryAddress
			err  error
		)
		if payload.Final {
			addr, err = tracker.OnMarkerDragEnd(r.Context(), payload.Lat, payload.Lng)
		} else {
			addr, err = tracker.OnMarkerDrag(payload.Lat, payload.Lng)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addr)
	}
}
