package enums

import "testing"

func TestParseRoundTrips(t *testing.T) {
	if got, err := ParseCheckoutState("awaiting_delivery_sync"); err != nil || got != CheckoutStateAwaitingDeliverySync {
		t.Fatalf("unexpected checkout state %q err=%v", got, err)
	}
	if got, err := ParseAddressSource("marker-drag"); err != nil || got != AddressSourceMarkerDrag {
		t.Fatalf("unexpected address source %q err=%v", got, err)
	}
	if _, err := ParseItemKind("vehicle"); err == nil {
		t.Fatalf("expected unknown item kind to fail")
	}
	if SyncStatus("bogus").IsValid() {
		t.Fatalf("bogus sync status should be invalid")
	}
}

func TestTerminalStates(t *testing.T) {
	terminal := []CheckoutState{CheckoutStateSynced, CheckoutStateSyncTimedOut, CheckoutStateRejected}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if CheckoutStateAwaitingDeliverySync.IsTerminal() || CheckoutStateIdle.IsTerminal() {
		t.Fatalf("non-terminal state reported terminal")
	}
	if !SyncStatusFailed.IsTerminal() || SyncStatusSyncing.IsTerminal() {
		t.Fatalf("unexpected sync terminal classification")
	}
}

func TestDeliveryStatusNormalization(t *testing.T) {
	if got := NormalizeDeliveryStatus("  Delivered "); !got.IsTerminal() {
		t.Fatalf("expected %q to be terminal", got)
	}
	if NormalizeDeliveryStatus("IN_TRANSIT") != DeliveryStatusInTransit || DeliveryStatusInTransit.IsTerminal() {
		t.Fatalf("unexpected in-transit handling")
	}
}
