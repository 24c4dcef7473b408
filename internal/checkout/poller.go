package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// startPollingLocked launches the single poll loop for orderID. o.mu must be held.
func (o *Orchestrator) startPollingLocked(orderID string) {
	o.stopPollingLocked()
	ctx, cancel := context.WithTimeout(o.baseCtx, o.syncTimeout)
	done := make(chan struct{})
	o.pollCancel = cancel
	o.pollDone = done
	go o.poll(ctx, cancel, orderID, done)
}

// stopPollingLocked cancels the running loop, if any. o.mu must be held.
func (o *Orchestrator) stopPollingLocked() {
	if o.pollCancel != nil {
		o.pollCancel()
		o.pollCancel = nil
	}
}

// poll asks for the delivery status on every tick until a terminal status, the sync ceiling or cancellation.
func (o *Orchestrator) poll(ctx context.Context, cancel context.CancelFunc, orderID string, done chan struct{}) {
	defer close(done)
	defer cancel()
	ctx = o.logg.WithOrderID(ctx, orderID)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				o.timeOut(ctx, orderID)
			}
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			if o.pollOnce(ctx, orderID) {
				return
			}
		}
	}
}

// pollOnce reports whether polling should stop.
func (o *Orchestrator) pollOnce(ctx context.Context, orderID string) bool {
	resp, err := o.backend.DeliveryStatus(ctx, orderID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		o.metrics.DeliveryPoll(metrics.ResultError)
		o.logg.WarnErr(ctx, "delivery status poll failed", err)
		return false
	}
	o.metrics.DeliveryPoll(metrics.ResultOK)
	if !resp.Success {
		return false
	}
	return o.applyStatus(ctx, orderID, resp)
}

func (o *Orchestrator) applyStatus(ctx context.Context, orderID string, resp *backend.DeliveryStatusResponse) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ownsSyncLocked(orderID) {
		return true
	}
	o.sync.DeliveryStatus = resp.DeliveryStatus
	if resp.TrackingNumber != "" {
		o.sync.TrackingNumber = resp.TrackingNumber
	}
	if resp.ETA != "" {
		o.sync.ETA = resp.ETA
	}
	o.sync.UpdatedAt = o.now().UTC()

	if !enums.NormalizeDeliveryStatus(resp.DeliveryStatus).IsTerminal() {
		return false
	}
	o.transition(ctx, enums.CheckoutStateSynced)
	o.sync.Status = enums.SyncStatusSynced
	o.pollCancel = nil
	o.metrics.CheckoutOutcome(string(enums.CheckoutStateSynced))
	o.notifier.Push(notify.LevelSuccess, "order delivered")
	o.logg.Info(ctx, "delivery synced")
	return true
}

func (o *Orchestrator) timeOut(ctx context.Context, orderID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ownsSyncLocked(orderID) {
		return
	}
	o.transition(ctx, enums.CheckoutStateSyncTimedOut)
	o.sync.Status = enums.SyncStatusFailed
	o.sync.UpdatedAt = o.now().UTC()
	o.pollCancel = nil
	advisory := pkgerrors.New(pkgerrors.CodeSyncTimeout, "delivery confirmation is taking longer than expected").
		WithDetails(map[string]any{"order_id": orderID})
	o.message = advisory.Message()
	o.metrics.CheckoutOutcome(string(enums.CheckoutStateSyncTimedOut))
	o.notifier.PushError(advisory)
	o.logg.Warn(ctx, "delivery sync timed out")
}

// ownsSyncLocked reports whether the loop for orderID may still change state.
func (o *Orchestrator) ownsSyncLocked(orderID string) bool {
	return !o.closed &&
		o.state == enums.CheckoutStateAwaitingDeliverySync &&
		o.sync != nil &&
		o.sync.OrderID == orderID
}
