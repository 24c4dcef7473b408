package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// IntParam describes one integer query parameter.
type IntParam struct {
	Key      string
	Default  int
	Min, Max int
	// Required rejects a missing value instead of using Default.
	Required bool
}

// ParseQueryInt reads p from the query string. Failures carry a per-field message in the same
// shape as body validation errors.
func ParseQueryInt(r *http.Request, p IntParam) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(p.Key))
	if raw == "" {
		if p.Required {
			return 0, queryError(p.Key, "is required")
		}
		return p.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(p.Key, "must be a whole number")
	}
	if value < p.Min || value > p.Max {
		return 0, queryError(p.Key, fmt.Sprintf("must be between %d and %d", p.Min, p.Max))
	}
	return value, nil
}

func queryError(key, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter").
		WithDetails(map[string]string{key: msg})
}
