package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/angelmondragon/storefront/pkg/storage"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubCart struct {
	addErr error
	adds   int
}

func (s *stubCart) Snapshot() cart.Snapshot { return cart.Snapshot{ItemsCount: s.adds} }

func (s *stubCart) AddToCart(_ context.Context, p cart.Product) (cart.Line, error) {
	if s.addErr != nil {
		return cart.Line{}, s.addErr
	}
	s.adds++
	return cart.Line{ProductID: p.ProductID, Name: p.Name, Quantity: 1}, nil
}

func (s *stubCart) UpdateQuantity(_ context.Context, productID string, quantity int) (cart.Line, error) {
	return cart.Line{ProductID: productID, Quantity: quantity}, nil
}

func (s *stubCart) RemoveFromCart(context.Context, string) error { return nil }

func (s *stubCart) ClearCart(context.Context) error { return nil }

func (s *stubCart) ValidateCart(context.Context, []cart.Line) (*backend.CartVerdict, error) {
	return &backend.CartVerdict{Valid: true}, nil
}

func (s *stubCart) CheckStock(context.Context, string, int) cart.Availability {
	return cart.Availability{Available: true}
}

type stubCheckout struct{ confirms int }

func (s *stubCheckout) Open(context.Context) checkout.View {
	return checkout.View{State: enums.CheckoutStateIdle}
}

func (s *stubCheckout) Confirm(context.Context) (checkout.Result, error) {
	s.confirms++
	return checkout.Result{State: enums.CheckoutStateAwaitingDeliverySync, Outcome: checkout.OutcomeSubmitted, OrderID: "ord-1"}, nil
}

func (s *stubCheckout) Status() checkout.View { return checkout.View{State: enums.CheckoutStateIdle} }

func (s *stubCheckout) Reset() error { return nil }

type stubSessions struct{}

func (stubSessions) Current(context.Context) (session.Session, bool) {
	return session.Session{User: session.Profile{ID: "u-1", Name: "Awa"}}, true
}

func (stubSessions) Authenticated(context.Context) bool { return true }

func (stubSessions) Profile(context.Context) (session.Profile, bool) {
	return session.Profile{ID: "u-1", Name: "Awa"}, true
}

func (stubSessions) Save(context.Context, session.Session) error { return nil }

func (stubSessions) Clear(context.Context) error { return nil }

type fixture struct {
	handler  http.Handler
	cart     *stubCart
	checkout *stubCheckout
	feed     *notify.Feed
}

func newFixture(t *testing.T, ready map[string]stubPinger) fixture {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	reg := prometheus.NewRegistry()
	m := metrics.NewStorefront(reg)
	m.CartMutation("add", metrics.ResultOK)

	pingers := map[string]controllers.Pinger{}
	for name, p := range ready {
		pingers[name] = p
	}

	f := fixture{cart: &stubCart{}, checkout: &stubCheckout{}, feed: notify.NewFeed(10)}
	f.handler = NewRouter(Dependencies{
		Config:        cfg,
		Logger:        logger.Nop(),
		Cart:          f.cart,
		Checkout:      f.checkout,
		Notifications: f.feed,
		Sessions:      stubSessions{},
		Idempotency:   storage.NewMemory(),
		Registry:      reg,
		Ready:         pingers,
	})
	return f
}

func (f fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "test", resp.Header().Get("X-Storefront-Env"))
	require.NotEmpty(t, resp.Header().Get("X-Request-Id"))
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	f := newFixture(t, map[string]stubPinger{"storage": {}, "redis": {err: errors.New("connection refused")}})
	resp := f.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "cart_mutations_total")
}

func TestCartAddThroughRouter(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(http.MethodPost, "/api/v1/cart/items", `{"productId":"p1","name":"Riz","price":"650","deliveryPrice":"500"}`, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.Equal(t, 1, f.cart.adds)
}

func TestInsufficientStockThroughRouter(t *testing.T) {
	f := newFixture(t, nil)
	f.cart.addErr = cart.InsufficientStock("p1", 0)

	resp := f.do(http.MethodPost, "/api/v1/cart/items", `{"productId":"p1","name":"Riz","price":"650","deliveryPrice":"500"}`, nil)
	require.Equal(t, http.StatusConflict, resp.Code)

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Equal(t, string(pkgerrors.CodeInsufficientStock), env.Error.Code)

	items, _, err := f.feed.List(pagination.Params{})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestConfirmReplaysWithIdempotencyKey(t *testing.T) {
	f := newFixture(t, nil)
	headers := map[string]string{"Idempotency-Key": "attempt-1"}

	first := f.do(http.MethodPost, "/api/v1/checkout/confirm", "", headers)
	require.Equal(t, http.StatusCreated, first.Code)

	second := f.do(http.MethodPost, "/api/v1/checkout/confirm", "", headers)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, f.checkout.confirms)
}

func TestConfirmWithoutKeyIsNotDeduplicated(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodPost, "/api/v1/checkout/confirm", "", nil)
	f.do(http.MethodPost, "/api/v1/checkout/confirm", "", nil)
	require.Equal(t, 2, f.checkout.confirms)
}

func TestAddressUnavailableWithoutTracker(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(http.MethodGet, "/api/v1/checkout/address", "", nil)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(http.MethodGet, "/api/v1/orders", "", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
