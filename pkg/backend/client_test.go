package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStockSendsBearerAndPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart/check-stock", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body StockCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, StockCheckRequest{ProductID: "p1", Quantity: 3}, body)

		_, _ = w.Write([]byte(`{"available":false,"availableStock":2}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api/", WithTokenSource(TokenFunc(func(context.Context) (string, error) {
		return "tok-1", nil
	})))
	require.NoError(t, err)

	resp, err := client.CheckStock(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.False(t, resp.Available)
	assert.Equal(t, 2, resp.AvailableStock)
}

func TestRequestWithoutTokenOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"available":true,"availableStock":9}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithTokenSource(TokenFunc(func(context.Context) (string, error) {
		return "", nil
	})))
	require.NoError(t, err)
	_, err = client.CheckStock(context.Background(), "p1", 1)
	require.NoError(t, err)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeValidation},
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusBadGateway, pkgerrors.CodeDependency},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"message":"adresse invalide"}`))
		}))
		client, err := NewClient(srv.URL)
		require.NoError(t, err)

		_, err = client.CreateOrder(context.Background(), CreateOrderRequest{})
		srv.Close()

		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "status %d", tc.status)
		assert.Equal(t, tc.code, typed.Code(), "status %d", tc.status)
		assert.Equal(t, "adresse invalide", typed.Message())
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	client, err := NewClient("http://backend.test", WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})}))
	require.NoError(t, err)

	_, err = client.DeliveryStatus(context.Background(), "o1")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNetwork), "got %v", err)
}

func TestCreateOrderAcceptsNestedIdentifier(t *testing.T) {
	var got CreateOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"order":{"_id":"ord-42","orderNumber":"CMD-7","status":"pending"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Items:           []OrderItem{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: types.ShippingAddress{Address: "12 rue A", City: "Dakar", Country: "Sénégal"},
		Coordinates:     types.GeoPoint{Lat: 14.7, Lng: -17.4},
		CustomerInfo:    CustomerInfo{Name: "Awa", Email: "awa@example.test"},
		PaymentMethod:   "cash_on_delivery",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-42", resp.OrderID)
	assert.Equal(t, "CMD-7", resp.OrderNumber)
	assert.Equal(t, []OrderItem{{ProductID: "p1", Quantity: 2}}, got.Items)
	assert.Equal(t, "Dakar", got.ShippingAddress.City)
}

func TestCreateOrderSuccessFalseIsValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"prix modifié"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = client.CreateOrder(context.Background(), CreateOrderRequest{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestValidateCartKeepsRawVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.Contains(string(body), `"cartItems"`))
		_, _ = w.Write([]byte(`{"valid":false,"message":"price drift","changes":[{"productId":"p1"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	verdict, err := client.ValidateCart(context.Background(), []CartItem{{ProductID: "p1", Quantity: 1, Price: 10}})
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, "price drift", verdict.Message)
	assert.Contains(t, string(verdict.Raw), "changes")
}

func TestDeliveryStatusPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders/ord-1/delivery-status", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"deliveryStatus":"in_transit","trackingNumber":"TRK1","eta":"30 min"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	resp, err := client.DeliveryStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", resp.DeliveryStatus)
	assert.Equal(t, "TRK1", resp.TrackingNumber)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("   ")
	assert.Error(t, err)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
