package enums

import "strings"

// DeliveryStatus is the fulfillment status reported by the backend.
// Unknown values are kept verbatim; only delivered ends delivery tracking.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusConfirmed DeliveryStatus = "confirmed"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// NormalizeDeliveryStatus lowercases and trims a backend value.
func NormalizeDeliveryStatus(value string) DeliveryStatus {
	return DeliveryStatus(strings.ToLower(strings.TrimSpace(value)))
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsTerminal reports whether tracking can stop.
func (d DeliveryStatus) IsTerminal() bool {
	return d == DeliveryStatusDelivered
}
