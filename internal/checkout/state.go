package checkout

import (
	"fmt"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

var allowedTransitions = map[enums.CheckoutState][]enums.CheckoutState{
	enums.CheckoutStateIdle:                 {enums.CheckoutStateValidating},
	enums.CheckoutStateValidating:           {enums.CheckoutStateIdle, enums.CheckoutStateSubmitting, enums.CheckoutStateRejected},
	enums.CheckoutStateSubmitting:           {enums.CheckoutStateAwaitingDeliverySync, enums.CheckoutStateRejected},
	enums.CheckoutStateAwaitingDeliverySync: {enums.CheckoutStateSynced, enums.CheckoutStateSyncTimedOut},
	enums.CheckoutStateSynced:               {enums.CheckoutStateIdle},
	enums.CheckoutStateSyncTimedOut:         {enums.CheckoutStateIdle},
	enums.CheckoutStateRejected:             {enums.CheckoutStateIdle},
}

func canTransition(from, to enums.CheckoutState) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func transitionError(from, to enums.CheckoutState) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("checkout cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}
