package address

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/storefront/pkg/debounce"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	defaultMinQueryLength = 5
	defaultDebounce       = time.Second
)

var errInvalidPoint = pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")

// DeliveryAddress is the destination being edited during checkout.
type DeliveryAddress struct {
	Text        string              `json:"text"`
	Coordinates types.GeoPoint      `json:"coordinates"`
	Source      enums.AddressSource `json:"source"`
	// Resolved is true once the coordinates come from a lookup for the current text.
	Resolved bool `json:"resolved"`
}

type lookup interface {
	GeocodeForward(ctx context.Context, text string) (types.GeoPoint, bool)
	GeocodeReverse(ctx context.Context, lat, lng float64) (string, bool)
}

// TrackerParams configure a tracker.
type TrackerParams struct {
	Resolver       lookup
	Default        types.GeoPoint
	MinQueryLength int
	Debounce       time.Duration
	Logger         *logger.Logger
}

// Tracker owns one DeliveryAddress and reacts to text input and map interactions.
// Every interaction bumps a revision; a lookup only applies if no newer interaction happened meanwhile.
type Tracker struct {
	resolver  lookup
	fallback  types.GeoPoint
	minLen    int
	debouncer *debounce.Debouncer
	logg      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	addr   DeliveryAddress
	rev    uint64
	seeded bool
	closed bool
}

// NewTracker builds a tracker positioned on the default point.
func NewTracker(params TrackerParams) (*Tracker, error) {
	if params.Resolver == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if !params.Default.Valid() {
		return nil, fmt.Errorf("default coordinates out of range")
	}
	minLen := params.MinQueryLength
	if minLen <= 0 {
		minLen = defaultMinQueryLength
	}
	window := params.Debounce
	if window <= 0 {
		window = defaultDebounce
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		resolver:  params.Resolver,
		fallback:  params.Default,
		minLen:    minLen,
		debouncer: debounce.New(window),
		logg:      logg,
		ctx:       ctx,
		cancel:    cancel,
		addr:      DeliveryAddress{Coordinates: params.Default, Source: enums.AddressSourceUserTyped},
	}, nil
}

// Current returns a copy of the address.
func (t *Tracker) Current() DeliveryAddress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

// Seed fills the address from the user profile. Only the first call after construction or Reset has effect.
func (t *Tracker) Seed(text string) bool {
	text = strings.TrimSpace(text)
	t.mu.Lock()
	if t.closed || t.seeded {
		t.mu.Unlock()
		return false
	}
	t.seeded = true
	if text == "" {
		t.mu.Unlock()
		return false
	}
	t.rev++
	t.addr = DeliveryAddress{Text: text, Coordinates: t.fallback, Source: enums.AddressSourceProfile}
	rev := t.rev
	t.mu.Unlock()

	t.scheduleForward(text, rev)
	return true
}

// OnTextInput records typed text and schedules a debounced forward lookup when the text is long enough.
func (t *Tracker) OnTextInput(text string) DeliveryAddress {
	t.mu.Lock()
	if t.closed {
		defer t.mu.Unlock()
		return t.addr
	}
	t.rev++
	t.addr.Text = text
	t.addr.Source = enums.AddressSourceUserTyped
	t.addr.Resolved = false
	rev := t.rev
	current := t.addr
	t.mu.Unlock()

	if utf8.RuneCountInString(strings.TrimSpace(text)) >= t.minLen {
		t.scheduleForward(strings.TrimSpace(text), rev)
	} else {
		t.debouncer.Cancel()
	}
	return current
}

// OnMapClick moves the pin and resolves its address.
func (t *Tracker) OnMapClick(ctx context.Context, lat, lng float64) (DeliveryAddress, error) {
	return t.placePin(ctx, lat, lng, enums.AddressSourceMapClick)
}

// OnMarkerDrag updates coordinates live while the marker moves. No lookup is issued.
func (t *Tracker) OnMarkerDrag(lat, lng float64) (DeliveryAddress, error) {
	point := types.GeoPoint{Lat: lat, Lng: lng}
	if !point.Valid() {
		return DeliveryAddress{}, errInvalidPoint
	}
	t.debouncer.Cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return t.addr, nil
	}
	t.rev++
	t.addr.Coordinates = point
	t.addr.Source = enums.AddressSourceMarkerDrag
	t.addr.Resolved = false
	return t.addr, nil
}

// OnMarkerDragEnd issues the single reverse lookup for a finished drag.
func (t *Tracker) OnMarkerDragEnd(ctx context.Context, lat, lng float64) (DeliveryAddress, error) {
	return t.placePin(ctx, lat, lng, enums.AddressSourceMarkerDrag)
}

// Reset returns to the default point and allows the next Seed.
func (t *Tracker) Reset() {
	t.debouncer.Cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.rev++
	t.seeded = false
	t.addr = DeliveryAddress{Coordinates: t.fallback, Source: enums.AddressSourceUserTyped}
}

// Close cancels pending and in-flight lookups. The address is frozen afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()
	t.debouncer.Stop()
	t.cancel()
}

func (t *Tracker) placePin(ctx context.Context, lat, lng float64, source enums.AddressSource) (DeliveryAddress, error) {
	point := types.GeoPoint{Lat: lat, Lng: lng}
	if !point.Valid() {
		return DeliveryAddress{}, errInvalidPoint
	}
	t.debouncer.Cancel()

	t.mu.Lock()
	if t.closed {
		defer t.mu.Unlock()
		return t.addr, nil
	}
	t.rev++
	t.addr.Coordinates = point
	t.addr.Source = source
	t.addr.Resolved = false
	rev := t.rev
	t.mu.Unlock()

	label, ok := t.resolver.GeocodeReverse(ctx, lat, lng)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed && t.rev == rev {
		t.addr.Text = label
		t.addr.Resolved = ok
	}
	return t.addr, nil
}

func (t *Tracker) scheduleForward(text string, rev uint64) {
	t.debouncer.Trigger(func() {
		point, ok := t.resolver.GeocodeForward(t.ctx, text)
		if !ok {
			return
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.closed || t.rev != rev || strings.TrimSpace(t.addr.Text) != text {
			t.logg.Debug(t.ctx, "discarding stale forward geocode")
			return
		}
		t.addr.Coordinates = point
		t.addr.Resolved = true
	})
}
