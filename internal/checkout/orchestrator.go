// Package checkout turns the cart and delivery address into an order and tracks its delivery.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	defaultPollInterval  = 10 * time.Second
	defaultSyncTimeout   = 5 * time.Minute
	defaultPaymentMethod = "cash_on_delivery"

	// ActionOpenAddressEntry asks the UI to (re)open the address form.
	ActionOpenAddressEntry = "open_address_entry"
	// ActionLogin asks the UI to redirect to the login page.
	ActionLogin = "login"
)

type cartStore interface {
	Lines() []cart.Line
	ClearCart(ctx context.Context) error
	RememberDeliveryAddress(ctx context.Context, text string)
	DeliveryAddress() string
}

type addressSource interface {
	Current() address.DeliveryAddress
	Seed(text string) bool
	Reset()
}

type sessionReader interface {
	Authenticated(ctx context.Context) bool
	Profile(ctx context.Context) (session.Profile, bool)
}

type orderBackend interface {
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*backend.CreateOrderResponse, error)
	DeliveryStatus(ctx context.Context, orderID string) (*backend.DeliveryStatusResponse, error)
}

type notifier interface {
	Push(level notify.Level, message string) notify.Notification
	PushAction(level notify.Level, message, action string) notify.Notification
	PushError(err error) notify.Notification
}

// AddressPrompter (re)opens address entry when checkout is confirmed without an address.
type AddressPrompter interface {
	PromptAddress(ctx context.Context)
}

// Params configure the orchestrator.
type Params struct {
	Cart          cartStore
	Address       addressSource
	Session       sessionReader
	Backend       orderBackend
	Notifier      notifier
	Prompter      AddressPrompter
	Logger        *logger.Logger
	Metrics       *metrics.Storefront
	PaymentMethod string
	Country       string
	PollInterval  time.Duration
	SyncTimeout   time.Duration
}

// DeliverySync tracks the fulfillment of the order created by the last attempt.
type DeliverySync struct {
	OrderID        string           `json:"orderId"`
	OrderNumber    string           `json:"orderNumber,omitempty"`
	Status         enums.SyncStatus `json:"status"`
	DeliveryStatus string           `json:"deliveryStatus,omitempty"`
	TrackingNumber string           `json:"trackingNumber,omitempty"`
	ETA            string           `json:"eta,omitempty"`
	StartedAt      time.Time        `json:"startedAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type Outcome string

const (
	OutcomeSubmitted       Outcome = "submitted"
	OutcomeLoginRequired   Outcome = "login_required"
	OutcomeEmptyCart       Outcome = "empty_cart"
	OutcomeAddressRequired Outcome = "address_required"
	OutcomeRejected        Outcome = "rejected"
)

// Result reports how a Confirm call ended.
type Result struct {
	State       enums.CheckoutState `json:"state"`
	Outcome     Outcome             `json:"outcome"`
	OrderID     string              `json:"orderId,omitempty"`
	OrderNumber string              `json:"orderNumber,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// View is a snapshot of the orchestrator for the UI.
type View struct {
	State      enums.CheckoutState     `json:"state"`
	Address    address.DeliveryAddress `json:"address"`
	Sync       *DeliverySync           `json:"deliverySync,omitempty"`
	Submission *OrderSubmission        `json:"submission,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

// Orchestrator runs one checkout attempt at a time and supervises its delivery polling.
type Orchestrator struct {
	cart          cartStore
	address       addressSource
	session       sessionReader
	backend       orderBackend
	notifier      notifier
	prompter      AddressPrompter
	logg          *logger.Logger
	metrics       *metrics.Storefront
	paymentMethod string
	country       string
	pollInterval  time.Duration
	syncTimeout   time.Duration
	now           func() time.Time

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu         sync.Mutex
	state      enums.CheckoutState
	sync       *DeliverySync
	submission *OrderSubmission
	message    string
	pollCancel context.CancelFunc
	pollDone   chan struct{}
	closed     bool
}

// NewOrchestrator builds an idle orchestrator.
func NewOrchestrator(params Params) (*Orchestrator, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Address == nil {
		return nil, fmt.Errorf("address tracker required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("order backend required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	o := &Orchestrator{
		cart:          params.Cart,
		address:       params.Address,
		session:       params.Session,
		backend:       params.Backend,
		notifier:      params.Notifier,
		prompter:      params.Prompter,
		logg:          params.Logger,
		metrics:       params.Metrics,
		paymentMethod: strings.TrimSpace(params.PaymentMethod),
		country:       strings.TrimSpace(params.Country),
		pollInterval:  params.PollInterval,
		syncTimeout:   params.SyncTimeout,
		now:           time.Now,
		state:         enums.CheckoutStateIdle,
	}
	if o.logg == nil {
		o.logg = logger.Nop()
	}
	if o.paymentMethod == "" {
		o.paymentMethod = defaultPaymentMethod
	}
	if o.pollInterval <= 0 {
		o.pollInterval = defaultPollInterval
	}
	if o.syncTimeout <= 0 {
		o.syncTimeout = defaultSyncTimeout
	}
	if o.prompter == nil {
		o.prompter = notifyPrompter{feed: o.notifier}
	}
	o.baseCtx, o.cancelBase = context.WithCancel(context.Background())
	return o, nil
}

// Open seeds the delivery address for a freshly opened checkout: the remembered address first, then the profile.
func (o *Orchestrator) Open(ctx context.Context) View {
	text := o.cart.DeliveryAddress()
	if text == "" {
		if profile, ok := o.session.Profile(ctx); ok {
			text = profile.Address
		}
	}
	o.address.Seed(text)
	return o.Status()
}

// Confirm runs a checkout attempt: preconditions, submission, then delivery polling in the background.
// Precondition failures return the orchestrator to idle and report a typed error alongside the result.
func (o *Orchestrator) Confirm(ctx context.Context) (Result, error) {
	if err := o.begin(); err != nil {
		return Result{State: o.State()}, err
	}

	if !o.session.Authenticated(ctx) {
		err := pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order").
			WithDetails(map[string]any{"action": ActionLogin})
		o.notifier.PushAction(notify.LevelWarning, err.Message(), ActionLogin)
		return o.abort(ctx, OutcomeLoginRequired, err)
	}
	lines := o.cart.Lines()
	if len(lines) == 0 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
		o.notifier.PushError(err)
		return o.abort(ctx, OutcomeEmptyCart, err)
	}
	addr := o.address.Current()
	if strings.TrimSpace(addr.Text) == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, "a delivery address is required").
			WithDetails(map[string]any{"action": ActionOpenAddressEntry})
		o.prompter.PromptAddress(ctx)
		return o.abort(ctx, OutcomeAddressRequired, err)
	}

	profile, _ := o.session.Profile(ctx)
	submission := buildSubmission(lines, addr, profile, o.paymentMethod, o.country)
	ctx = o.logg.WithField(ctx, "submission_ref", submission.Reference)

	o.mu.Lock()
	o.transition(ctx, enums.CheckoutStateSubmitting)
	o.submission = &submission
	o.mu.Unlock()

	start := time.Now()
	resp, err := o.backend.CreateOrder(ctx, submission.request())
	o.metrics.ObserveSubmit(time.Since(start))
	if err != nil {
		return o.reject(ctx, err)
	}
	return o.accept(ctx, addr, resp)
}

// Status returns a snapshot of the current attempt.
func (o *Orchestrator) Status() View {
	addr := o.address.Current()
	o.mu.Lock()
	defer o.mu.Unlock()
	view := View{State: o.state, Address: addr, Message: o.message}
	if o.sync != nil {
		s := *o.sync
		view.Sync = &s
	}
	if o.submission != nil {
		s := *o.submission
		view.Submission = &s
	}
	return view
}

// State returns the current checkout state.
func (o *Orchestrator) State() enums.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Reset closes the checkout view: polling is cancelled and the delivery address is discarded,
// including any pending lookup, so the next Open seeds it again.
// Attempts that are still validating or submitting cannot be reset.
func (o *Orchestrator) Reset() error {
	if err := o.resetAttempt(); err != nil {
		return err
	}
	// the tracker has its own lock
	o.address.Reset()
	return nil
}

func (o *Orchestrator) resetAttempt() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout closed")
	}
	switch o.state {
	case enums.CheckoutStateValidating, enums.CheckoutStateSubmitting:
		return transitionError(o.state, enums.CheckoutStateIdle)
	}
	o.stopPollingLocked()
	o.state = enums.CheckoutStateIdle
	o.sync = nil
	o.submission = nil
	o.message = ""
	return nil
}

// Close tears the orchestrator down. Polling stops and no state changes afterwards.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	done := o.pollDone
	o.mu.Unlock()

	o.cancelBase()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout closed")
	}
	if o.state.IsTerminal() {
		// a finished attempt makes way for the new one
		o.stopPollingLocked()
		o.state = enums.CheckoutStateIdle
	}
	if !canTransition(o.state, enums.CheckoutStateValidating) {
		return transitionError(o.state, enums.CheckoutStateValidating)
	}
	o.state = enums.CheckoutStateValidating
	o.sync = &DeliverySync{Status: enums.SyncStatusPending}
	o.submission = nil
	o.message = ""
	return nil
}

func (o *Orchestrator) abort(ctx context.Context, outcome Outcome, err error) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transition(ctx, enums.CheckoutStateIdle)
	o.sync = nil
	o.message = pkgerrors.As(err).Message()
	return Result{State: o.state, Outcome: outcome, Message: o.message}, err
}

func (o *Orchestrator) reject(ctx context.Context, err error) (Result, error) {
	if pkgerrors.As(err) == nil {
		err = pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "order submission failed")
	}
	o.logg.WarnErr(ctx, "order submission rejected", err)
	o.notifier.PushError(err)
	o.metrics.CheckoutOutcome(string(enums.CheckoutStateRejected))

	o.mu.Lock()
	defer o.mu.Unlock()
	o.transition(ctx, enums.CheckoutStateRejected)
	o.sync = nil
	o.message = pkgerrors.As(err).Message()
	return Result{State: o.state, Outcome: OutcomeRejected, Message: o.message}, err
}

func (o *Orchestrator) accept(ctx context.Context, addr address.DeliveryAddress, resp *backend.CreateOrderResponse) (Result, error) {
	ctx = o.logg.WithOrderID(ctx, resp.OrderID)
	if err := o.cart.ClearCart(ctx); err != nil {
		o.logg.WarnErr(ctx, "clear cart after order failed", err)
	}
	o.cart.RememberDeliveryAddress(ctx, addr.Text)
	o.notifier.Push(notify.LevelSuccess, "order placed")
	o.logg.Info(ctx, "order created")

	o.mu.Lock()
	defer o.mu.Unlock()
	result := Result{Outcome: OutcomeSubmitted, OrderID: resp.OrderID, OrderNumber: resp.OrderNumber}
	if o.closed {
		result.State = o.state
		return result, nil
	}
	o.transition(ctx, enums.CheckoutStateAwaitingDeliverySync)
	now := o.now().UTC()
	o.sync = &DeliverySync{
		OrderID:     resp.OrderID,
		OrderNumber: resp.OrderNumber,
		Status:      enums.SyncStatusSyncing,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	o.startPollingLocked(resp.OrderID)
	result.State = o.state
	return result, nil
}

// transition expects o.mu to be held.
func (o *Orchestrator) transition(ctx context.Context, to enums.CheckoutState) {
	if !canTransition(o.state, to) {
		o.logg.Error(ctx, "illegal checkout transition", transitionError(o.state, to))
		return
	}
	o.logg.Debug(o.logg.WithFields(ctx, map[string]any{"from": o.state, "to": to}), "checkout transition")
	o.state = to
}

type notifyPrompter struct {
	feed notifier
}

func (p notifyPrompter) PromptAddress(context.Context) {
	p.feed.PushAction(notify.LevelWarning, "a delivery address is required", ActionOpenAddressEntry)
}
