// Package cart holds the session-wide shopping cart.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/shopspring/decimal"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
)

type cartBackend interface {
	CheckStock(ctx context.Context, productID string, quantity int) (*backend.StockCheckResponse, error)
	ValidateCart(ctx context.Context, items []backend.CartItem) (*backend.CartVerdict, error)
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StoreParams configure the cart store.
type StoreParams struct {
	Backend    cartBackend
	Storage    kvStore
	CartKey    string
	AddressKey string
	Logger     *logger.Logger
	Metrics    *metrics.Storefront
}

// Store is the single source of truth for the cart. All mutations go through its methods.
type Store struct {
	backend    cartBackend
	storage    kvStore
	cartKey    string
	addressKey string
	logg       *logger.Logger
	metrics    *metrics.Storefront
	now        func() time.Time

	// gate is held shared by per-product mutations and exclusively by ClearCart,
	// so a clear lands after every mutation already waiting on its stock check.
	gate      sync.RWMutex
	locks     *productLocks
	persistMu sync.Mutex

	mu      sync.RWMutex
	lines   []Line
	address string

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// NewStore builds an empty cart store. Call Load to restore the persisted cart.
func NewStore(params StoreParams) (*Store, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("cart backend required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if strings.TrimSpace(params.CartKey) == "" {
		return nil, fmt.Errorf("cart key required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		backend:    params.Backend,
		storage:    params.Storage,
		cartKey:    params.CartKey,
		addressKey: params.AddressKey,
		logg:       logg,
		metrics:    params.Metrics,
		now:        time.Now,
		locks:      newProductLocks(),
		subs:       make(map[int]chan Snapshot),
	}, nil
}

// Load restores the cart and remembered address. A corrupt record is logged and replaced by an empty cart.
func (s *Store) Load(ctx context.Context) {
	var lines []Line
	raw, err := s.storage.Get(ctx, s.cartKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		s.logg.WarnErr(ctx, "cart storage unreadable; starting empty", err)
	default:
		decoded, decodeErr := decodeLines(raw)
		if decodeErr != nil {
			s.logg.WarnErr(ctx, "stored cart is corrupt; starting empty", decodeErr)
		} else {
			lines = decoded
		}
	}

	var address string
	if s.addressKey != "" {
		if v, err := s.storage.Get(ctx, s.addressKey); err == nil {
			address = v
		} else if !errors.Is(err, storage.ErrNotFound) {
			s.logg.WarnErr(ctx, "remembered address unreadable", err)
		}
	}

	s.mu.Lock()
	s.lines = lines
	s.address = address
	s.mu.Unlock()
	s.publish()
}

// AddToCart adds one unit of p after the backend confirms the new quantity is in stock.
func (s *Store) AddToCart(ctx context.Context, p Product) (Line, error) {
	if err := p.validate(); err != nil {
		return Line{}, err
	}
	ctx = s.logg.WithProductID(ctx, p.ProductID)
	s.gate.RLock()
	defer s.gate.RUnlock()
	unlock := s.locks.lock(p.ProductID)
	defer unlock()

	want := s.quantityOf(p.ProductID) + 1
	if err := s.requireStock(ctx, p.ProductID, want); err != nil {
		s.record(opAdd, err)
		return Line{}, err
	}

	s.mu.Lock()
	idx := s.indexOf(p.ProductID)
	if idx >= 0 {
		s.lines[idx].Quantity++
	} else {
		idx = len(s.lines)
		s.lines = append(s.lines, Line{
			ProductID:         p.ProductID,
			Name:              p.Name,
			UnitPrice:         p.UnitPrice,
			DeliveryUnitPrice: p.DeliveryUnitPrice,
			Quantity:          1,
			AddedAt:           s.now().UTC(),
		})
	}
	line := s.lines[idx]
	s.mu.Unlock()

	s.afterMutation(ctx, opAdd)
	return line, nil
}

// UpdateQuantity sets the quantity of a line. Quantities below one remove the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, s.RemoveFromCart(ctx, productID)
	}
	ctx = s.logg.WithProductID(ctx, productID)
	s.gate.RLock()
	defer s.gate.RUnlock()
	unlock := s.locks.lock(productID)
	defer unlock()

	if s.quantityOf(productID) == 0 {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
		s.record(opUpdate, err)
		return Line{}, err
	}
	if err := s.requireStock(ctx, productID, quantity); err != nil {
		s.record(opUpdate, err)
		return Line{}, err
	}

	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		err := pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
		s.record(opUpdate, err)
		return Line{}, err
	}
	s.lines[idx].Quantity = quantity
	line := s.lines[idx]
	s.mu.Unlock()

	s.afterMutation(ctx, opUpdate)
	return line, nil
}

// RemoveFromCart deletes the line if present. It waits for an in-flight add or update of the same product.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.gate.RLock()
	defer s.gate.RUnlock()
	unlock := s.locks.lock(productID)
	defer unlock()

	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.lines = append(s.lines[:idx:idx], s.lines[idx+1:]...)
	s.mu.Unlock()

	s.afterMutation(s.logg.WithProductID(ctx, productID), opRemove)
	return nil
}

// ClearCart empties the cart once in-flight mutations have settled.
func (s *Store) ClearCart(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	s.afterMutation(ctx, opClear)
	return nil
}

// ItemsCount is the total quantity across lines.
func (s *Store) ItemsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Line(nil), s.lines...)
}

// Line returns the line for productID.
func (s *Store) Line(productID string) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(productID); idx >= 0 {
		return s.lines[idx], true
	}
	return Line{}, false
}

func (s *Store) CalculateSubtotal() decimal.Decimal {
	return sum(s.Lines(), Line.Subtotal)
}

func (s *Store) CalculateDeliveryTotal() decimal.Decimal {
	return sum(s.Lines(), Line.DeliveryTotal)
}

// CalculateTotal is subtotal plus delivery.
func (s *Store) CalculateTotal() decimal.Decimal {
	lines := s.Lines()
	return sum(lines, Line.Subtotal).Add(sum(lines, Line.DeliveryTotal))
}

// Availability is the optimistic stock answer.
type Availability struct {
	Available      bool `json:"available"`
	AvailableStock int  `json:"availableStock"`
	// Assumed is set when the backend could not be reached and availability was assumed.
	Assumed bool `json:"assumed,omitempty"`
}

// CheckStock asks the backend without mutating the cart. Unlike mutations, a failed call assumes availability.
func (s *Store) CheckStock(ctx context.Context, productID string, quantity int) Availability {
	resp, err := s.backend.CheckStock(ctx, productID, quantity)
	if err != nil {
		s.logg.WarnErr(s.logg.WithProductID(ctx, productID), "stock check failed; assuming available", err)
		return Availability{Available: true, AvailableStock: quantity, Assumed: true}
	}
	return Availability{Available: resp.Available, AvailableStock: resp.AvailableStock}
}

// ValidateCart sends lines (or the current cart when lines is nil) to the backend and returns its verdict unchanged.
func (s *Store) ValidateCart(ctx context.Context, lines []Line) (*backend.CartVerdict, error) {
	if lines == nil {
		lines = s.Lines()
	}
	items := make([]backend.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, backend.CartItem{
			ProductID:     line.ProductID,
			Name:          line.Name,
			Price:         line.UnitPrice.InexactFloat64(),
			DeliveryPrice: line.DeliveryUnitPrice.InexactFloat64(),
			Quantity:      line.Quantity,
		})
	}
	return s.backend.ValidateCart(ctx, items)
}

// RememberDeliveryAddress keeps the last confirmed delivery address for the next checkout.
func (s *Store) RememberDeliveryAddress(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	s.mu.Lock()
	s.address = text
	s.mu.Unlock()
	if s.addressKey == "" {
		return
	}
	if err := s.storage.Set(ctx, s.addressKey, text); err != nil {
		s.logg.WarnErr(ctx, "persist delivery address failed", err)
	}
}

func (s *Store) DeliveryAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// Snapshot is the cart state delivered to subscribers.
type Snapshot struct {
	Lines         []Line          `json:"items"`
	ItemsCount    int             `json:"itemsCount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryTotal decimal.Decimal `json:"deliveryTotal"`
	Total         decimal.Decimal `json:"total"`
}

// Snapshot returns the current cart with its totals.
func (s *Store) Snapshot() Snapshot {
	lines := s.Lines()
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	subtotal := sum(lines, Line.Subtotal)
	delivery := sum(lines, Line.DeliveryTotal)
	return Snapshot{
		Lines:         lines,
		ItemsCount:    count,
		Subtotal:      subtotal,
		DeliveryTotal: delivery,
		Total:         subtotal.Add(delivery),
	}
}

// Subscribe delivers the latest snapshot after every change. Slow readers only see the most recent one.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish() {
	snap := s.Snapshot()
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) requireStock(ctx context.Context, productID string, quantity int) error {
	resp, err := s.backend.CheckStock(ctx, productID, quantity)
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "stock check failed")
		}
		return err
	}
	if !resp.Available {
		return InsufficientStock(productID, resp.AvailableStock)
	}
	return nil
}

func (s *Store) afterMutation(ctx context.Context, op string) {
	s.persist(ctx)
	s.record(op, nil)
	s.publish()
}

// persist writes the whole line set. Writers are serialized and each writes the state current at write time.
func (s *Store) persist(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	lines := s.Lines()
	if lines == nil {
		lines = []Line{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		s.logg.Error(ctx, "encode cart failed", err)
		return
	}
	if err := s.storage.Set(ctx, s.cartKey, string(payload)); err != nil {
		s.logg.WarnErr(ctx, "persist cart failed", err)
	}
}

func (s *Store) record(op string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = strings.ToLower(string(pkgerrors.CodeOf(err)))
	}
	s.metrics.CartMutation(op, result)
}

func (s *Store) quantityOf(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(productID); idx >= 0 {
		return s.lines[idx].Quantity
	}
	return 0
}

// indexOf expects s.mu to be held.
func (s *Store) indexOf(productID string) int {
	for i, line := range s.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func sum(lines []Line, f func(Line) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(f(line))
	}
	return total
}
