package enums

import "fmt"

// CheckoutState tracks a single checkout attempt.
type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "idle"
	CheckoutStateValidating           CheckoutState = "validating"
	CheckoutStateSubmitting           CheckoutState = "submitting"
	CheckoutStateAwaitingDeliverySync CheckoutState = "awaiting_delivery_sync"
	CheckoutStateSynced               CheckoutState = "synced"
	CheckoutStateSyncTimedOut         CheckoutState = "sync_timed_out"
	CheckoutStateRejected             CheckoutState = "rejected"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateValidating,
	CheckoutStateSubmitting,
	CheckoutStateAwaitingDeliverySync,
	CheckoutStateSynced,
	CheckoutStateSyncTimedOut,
	CheckoutStateRejected,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}

// IsTerminal reports whether no further transition is expected without a reset.
func (c CheckoutState) IsTerminal() bool {
	switch c {
	case CheckoutStateSynced, CheckoutStateSyncTimedOut, CheckoutStateRejected:
		return true
	}
	return false
}
