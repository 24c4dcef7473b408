package instance

import (
	"os"
	"strings"
)

const (
	envInstanceID = "STOREFRONT_INSTANCE_ID"
	envDyno       = "DYNO"
	defaultID     = "local"
)

// GetID identifies this process in logs: explicit id, then platform dyno, then hostname.
func GetID() string {
	for _, key := range []string{envInstanceID, envDyno} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
