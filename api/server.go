package api

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// NewServer wraps handler in the local API server. PORT overrides the configured port.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              Addr(cfg),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		// Confirm waits on the order backend, so writes get the backend timeout on top.
		WriteTimeout: readTimeout + cfg.Backend.Timeout,
		IdleTimeout:  idleTimeout,
	}
}

// Addr resolves the listen address.
func Addr(cfg *config.Config) string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = cfg.App.Port
	}
	return ":" + port
}
