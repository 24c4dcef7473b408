package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type profileReader interface {
	Profile(ctx context.Context) (session.Profile, bool)
}

// SessionContext tags the request with the signed-in user, if any. Anonymous requests pass through.
func SessionContext(sessions profileReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions == nil {
				next.ServeHTTP(w, r)
				return
			}
			profile, ok := sessions.Profile(r.Context())
			if !ok || profile.ID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithUserID(r.Context(), profile.ID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, profile.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
