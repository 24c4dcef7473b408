package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	pathCheckStock     = "/cart/check-stock"
	pathValidateCart   = "/cart/validate"
	pathOrders         = "/orders"
	pathDeliveryStatus = "/orders/%s/delivery-status"
)

type StockCheckRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type StockCheckResponse struct {
	Available      bool `json:"available"`
	AvailableStock int  `json:"availableStock"`
}

// CheckStock asks whether productID can supply quantity.
func (c *Client) CheckStock(ctx context.Context, productID string, quantity int) (*StockCheckResponse, error) {
	var resp StockCheckResponse
	if err := c.do(ctx, http.MethodPost, pathCheckStock, StockCheckRequest{ProductID: productID, Quantity: quantity}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CartItem is the wire shape of a cart line sent for validation.
type CartItem struct {
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	DeliveryPrice float64 `json:"deliveryPrice"`
	Quantity      int     `json:"quantity"`
}

// CartVerdict keeps the fields the client understands plus the raw backend object.
type CartVerdict struct {
	Valid   bool            `json:"valid"`
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// ValidateCart submits the full line set; the verdict is returned untouched for the caller to act on.
func (c *Client) ValidateCart(ctx context.Context, items []CartItem) (*CartVerdict, error) {
	var raw json.RawMessage
	body := struct {
		CartItems []CartItem `json:"cartItems"`
	}{CartItems: items}
	if err := c.do(ctx, http.MethodPost, pathValidateCart, body, &raw); err != nil {
		return nil, err
	}
	verdict := CartVerdict{Raw: raw}
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart verdict")
	}
	return &verdict, nil
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type CreateOrderRequest struct {
	Items           []OrderItem           `json:"items"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	Coordinates     types.GeoPoint        `json:"coordinates"`
	CustomerInfo    CustomerInfo          `json:"customerInfo"`
	PaymentMethod   string                `json:"paymentMethod"`
}

type CreateOrderResponse struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Status      string `json:"status,omitempty"`
}

// CreateOrder posts a new order. Backends disagree on where the id lives, so several shapes are accepted.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	var raw struct {
		Success     *bool  `json:"success"`
		Message     string `json:"message"`
		OrderID     string `json:"orderId"`
		ID          string `json:"id"`
		MongoID     string `json:"_id"`
		OrderNumber string `json:"orderNumber"`
		Status      string `json:"status"`
		Order       *struct {
			ID          string `json:"id"`
			MongoID     string `json:"_id"`
			OrderNumber string `json:"orderNumber"`
			Status      string `json:"status"`
		} `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, pathOrders, req, &raw); err != nil {
		return nil, err
	}
	if raw.Success != nil && !*raw.Success {
		msg := raw.Message
		if msg == "" {
			msg = "order rejected"
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msg)
	}

	resp := &CreateOrderResponse{
		OrderID:     firstNonEmpty(raw.OrderID, raw.ID, raw.MongoID),
		OrderNumber: raw.OrderNumber,
		Status:      raw.Status,
	}
	if raw.Order != nil {
		resp.OrderID = firstNonEmpty(resp.OrderID, raw.Order.ID, raw.Order.MongoID)
		resp.OrderNumber = firstNonEmpty(resp.OrderNumber, raw.Order.OrderNumber)
		resp.Status = firstNonEmpty(resp.Status, raw.Order.Status)
	}
	if resp.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order created without identifier")
	}
	return resp, nil
}

type DeliveryStatusResponse struct {
	Success        bool   `json:"success"`
	DeliveryStatus string `json:"deliveryStatus"`
	TrackingNumber string `json:"trackingNumber"`
	ETA            string `json:"eta"`
}

// DeliveryStatus reads the fulfillment status of an order.
func (c *Client) DeliveryStatus(ctx context.Context, orderID string) (*DeliveryStatusResponse, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var resp DeliveryStatusResponse
	path := strings.Replace(pathDeliveryStatus, "%s", url.PathEscape(id), 1)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
