package validators

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// ParseBearer extracts the token from an Authorization header value. The "Bearer" scheme is optional.
func ParseBearer(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid auth token")
	}
	return token, nil
}
