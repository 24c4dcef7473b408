package address

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

var dakar = types.GeoPoint{Lat: 14.6928, Lng: -17.4467}

type fakeLookup struct {
	mu       sync.Mutex
	forwards []string
	reverses int
	point    types.GeoPoint
	ok       bool
	label    string
	// reverseFails makes reverse lookups answer with the coordinate fallback.
	reverseFails bool
	gate         chan struct{}
}

func (f *fakeLookup) GeocodeForward(_ context.Context, text string) (types.GeoPoint, bool) {
	f.mu.Lock()
	f.forwards = append(f.forwards, text)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.point, f.ok
}

func (f *fakeLookup) GeocodeReverse(_ context.Context, lat, lng float64) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverses++
	if f.reverseFails {
		return FallbackLabel(types.GeoPoint{Lat: lat, Lng: lng}), false
	}
	return f.label, true
}

func (f *fakeLookup) forwardCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.forwards...)
}

func newTestTracker(t *testing.T, lk *fakeLookup) *Tracker {
	t.Helper()
	tr, err := NewTracker(TrackerParams{Resolver: lk, Default: dakar, MinQueryLength: 5, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	t.Cleanup(tr.Close)
	return tr
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestTextInputDebouncesToLastValue(t *testing.T) {
	lk := &fakeLookup{point: types.GeoPoint{Lat: 14.71, Lng: -17.47}, ok: true}
	tr := newTestTracker(t, lk)

	for _, text := range []string{"Rue 1", "Rue 10", "Rue 10, Dakar"} {
		addr := tr.OnTextInput(text)
		if addr.Resolved {
			t.Fatalf("editing text must reset resolved")
		}
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, func() bool { return tr.Current().Resolved })
	calls := lk.forwardCalls()
	if len(calls) != 1 || calls[0] != "Rue 10, Dakar" {
		t.Fatalf("expected single lookup for the last text, got %v", calls)
	}
	if got := tr.Current().Coordinates; got != lk.point {
		t.Fatalf("expected geocoded coordinates, got %+v", got)
	}
}

func TestShortTextSkipsLookup(t *testing.T) {
	lk := &fakeLookup{ok: true}
	tr := newTestTracker(t, lk)

	tr.OnTextInput("Rue")
	time.Sleep(60 * time.Millisecond)
	if calls := lk.forwardCalls(); len(calls) != 0 {
		t.Fatalf("expected no lookup for short text, got %v", calls)
	}
	if tr.Current().Coordinates != dakar {
		t.Fatalf("expected default coordinates")
	}
}

func TestStaleForwardResultIsDiscarded(t *testing.T) {
	lk := &fakeLookup{point: types.GeoPoint{Lat: 1, Lng: 1}, ok: true, gate: make(chan struct{})}
	tr := newTestTracker(t, lk)

	tr.OnTextInput("Avenue Bourguiba")
	waitFor(t, func() bool { return len(lk.forwardCalls()) == 1 })
	tr.OnTextInput("Aven")
	close(lk.gate)

	time.Sleep(40 * time.Millisecond)
	addr := tr.Current()
	if addr.Text != "Aven" || addr.Resolved {
		t.Fatalf("unexpected address %+v", addr)
	}
	if addr.Coordinates != dakar {
		t.Fatalf("stale lookup must not apply to changed text, got %+v", addr.Coordinates)
	}
}

func TestMarkerDragIssuesSingleLookupAtEnd(t *testing.T) {
	lk := &fakeLookup{label: "Point E, Dakar"}
	tr := newTestTracker(t, lk)

	for i := 0; i < 5; i++ {
		addr, err := tr.OnMarkerDrag(14.70+float64(i)*0.001, -17.45)
		if err != nil {
			t.Fatalf("drag: %v", err)
		}
		if addr.Source != enums.AddressSourceMarkerDrag {
			t.Fatalf("unexpected source %s", addr.Source)
		}
	}
	if lk.reverses != 0 {
		t.Fatalf("expected no lookups during drag, got %d", lk.reverses)
	}

	addr, err := tr.OnMarkerDragEnd(context.Background(), 14.705, -17.45)
	if err != nil {
		t.Fatalf("drag end: %v", err)
	}
	if lk.reverses != 1 {
		t.Fatalf("expected exactly one lookup, got %d", lk.reverses)
	}
	if addr.Text != "Point E, Dakar" || !addr.Resolved || addr.Coordinates.Lat != 14.705 {
		t.Fatalf("unexpected address %+v", addr)
	}
}

func TestMapClickFallbackLabelIsNotResolved(t *testing.T) {
	tr := newTestTracker(t, &fakeLookup{reverseFails: true})

	addr, err := tr.OnMapClick(context.Background(), 14.7, -17.4)
	if err != nil {
		t.Fatalf("map click: %v", err)
	}
	if addr.Text != "Coordonnées GPS: 14.700000, -17.400000" {
		t.Fatalf("expected the coordinate label, got %q", addr.Text)
	}
	if addr.Resolved {
		t.Fatalf("a failed reverse lookup must not mark the address resolved")
	}
	if addr.Coordinates.Lat != 14.7 || addr.Source != enums.AddressSourceMapClick {
		t.Fatalf("expected the pin to move anyway, got %+v", addr)
	}
}

func TestMapClickRejectsInvalidPoint(t *testing.T) {
	tr := newTestTracker(t, &fakeLookup{})
	if _, err := tr.OnMapClick(context.Background(), 120, 0); err == nil {
		t.Fatalf("expected invalid latitude to fail")
	}
}

func TestSeedAppliesOnce(t *testing.T) {
	lk := &fakeLookup{point: types.GeoPoint{Lat: 14.7, Lng: -17.4}, ok: true}
	tr := newTestTracker(t, lk)

	if !tr.Seed("Rue 10, Dakar 12500") {
		t.Fatalf("expected first seed to apply")
	}
	if tr.Seed("Somewhere else entirely") {
		t.Fatalf("expected second seed to be ignored")
	}
	addr := tr.Current()
	if addr.Text != "Rue 10, Dakar 12500" || addr.Source != enums.AddressSourceProfile {
		t.Fatalf("unexpected seeded address %+v", addr)
	}
	waitFor(t, func() bool { return tr.Current().Resolved })

	tr.Reset()
	if tr.Current().Text != "" || !tr.Seed("Nouvelle adresse") {
		t.Fatalf("expected reset to allow a new seed")
	}
}

func TestCloseCancelsPendingLookup(t *testing.T) {
	lk := &fakeLookup{ok: true}
	tr := newTestTracker(t, lk)

	tr.OnTextInput("Rue de Thiong")
	tr.Close()
	time.Sleep(60 * time.Millisecond)

	if calls := lk.forwardCalls(); len(calls) != 0 {
		t.Fatalf("expected no lookup after close, got %v", calls)
	}
	before := tr.Current()
	tr.OnTextInput("changed after close")
	if tr.Current() != before {
		t.Fatalf("expected state frozen after close")
	}
}
