package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// SessionStore holds the login handed over by the auth pages.
type SessionStore interface {
	Current(ctx context.Context) (session.Session, bool)
	Authenticated(ctx context.Context) bool
	Profile(ctx context.Context) (session.Profile, bool)
	Save(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

type sessionUserPayload struct {
	ID      string `json:"id" validate:"required,max=128"`
	Name    string `json:"name" validate:"max=256"`
	Phone   string `json:"phone" validate:"max=64"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=512"`
}

type sessionRequest struct {
	Token string             `json:"token"`
	User  sessionUserPayload `json:"user"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *session.Profile `json:"user,omitempty"`
}

// SessionFetch reports whether a usable login is stored. The token itself is never echoed.
func SessionFetch(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}
		responses.WriteSuccess(w, currentSession(r.Context(), store))
	}
}

// SessionSave stores the login handed over by the auth pages. The token may come in the body or the Authorization header.
func SessionSave(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		var payload sessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := payload.Token
		if strings.TrimSpace(raw) == "" {
			raw = r.Header.Get("Authorization")
		}
		token, err := validators.ParseBearer(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = store.Save(r.Context(), session.Session{
			Token: token,
			User: session.Profile{
				ID:      strings.TrimSpace(payload.User.ID),
				Name:    validators.SanitizeString(payload.User.Name, 256),
				Phone:   validators.SanitizeString(payload.User.Phone, 64),
				Email:   strings.TrimSpace(payload.User.Email),
				Address: validators.SanitizeString(payload.User.Address, maxAddressLength),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, currentSession(r.Context(), store))
	}
}

// SessionClear forgets the stored login.
func SessionClear(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func currentSession(ctx context.Context, store SessionStore) sessionResponse {
	resp := sessionResponse{Authenticated: store.Authenticated(ctx)}
	if s, ok := store.Current(ctx); ok {
		user := s.User
		resp.User = &user
	}
	return resp
}
