// Package authz is the explicit access-control layer for core operations.
// Every privileged operation is checked through Authorize rather than ad hoc
// role comparisons inside handlers, so the full policy is readable in one
// place and testable without a database.
package authz

import (
	"errors"
	"fmt"

	"fileflow/auth"
)

// ErrForbidden signals the principal may not perform the action.
var ErrForbidden = errors.New("authz: forbidden")

// Action names one core operation.
type Action string

const (
	ActionSubmitIntake    Action = "filing.submit_intake"
	ActionViewFiling      Action = "filing.view"
	ActionListAllFilings  Action = "filing.list_all"
	ActionMarkPaid        Action = "filing.mark_paid"
	ActionRequeueFiling   Action = "filing.requeue"
	ActionQueueRun        Action = "run.queue"
	ActionSimulateRun     Action = "run.simulate"
	ActionCreateAdapter   Action = "adapter.create"
	ActionToggleAdapter   Action = "adapter.toggle"
	ActionListAdapters    Action = "adapter.list"
	ActionBackfillPayment Action = "payment.backfill"
	ActionRecordPayment   Action = "payment.record"
	ActionViewWebhooks    Action = "webhook.list"
	ActionSendMessage     Action = "message.send"
	ActionViewInbox       Action = "message.inbox"
)

// Principal is the authenticated caller as supplied by the identity layer.
// The core trusts the role as given.
type Principal struct {
	UserID string
	Role   auth.Role
}

// Resource scopes an action to an owned object when ownership matters.
// OwnerID is empty for global resources (registry, backfill).
type Resource struct {
	OwnerID string
}

// operatorOnly lists the actions reserved for admin and ops roles.
var operatorOnly = map[Action]bool{
	ActionListAllFilings:  true,
	ActionMarkPaid:        true,
	ActionRequeueFiling:   true,
	ActionQueueRun:        true,
	ActionSimulateRun:     true,
	ActionCreateAdapter:   true,
	ActionToggleAdapter:   true,
	ActionListAdapters:    true,
	ActionBackfillPayment: true,
	ActionViewWebhooks:    true,
	ActionViewInbox:       true,
}

// Authorize returns nil when principal may perform action on resource.
func Authorize(p Principal, action Action, res Resource) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: anonymous principal", ErrForbidden)
	}

	if p.Role == auth.RoleAdmin || p.Role == auth.RoleOps {
		return nil
	}

	if operatorOnly[action] {
		return fmt.Errorf("%w: %s requires operator role", ErrForbidden, action)
	}

	switch action {
	case ActionSubmitIntake, ActionSendMessage, ActionRecordPayment:
		return nil
	case ActionViewFiling:
		if res.OwnerID != "" && res.OwnerID == p.UserID {
			return nil
		}
		return fmt.Errorf("%w: filing not owned by principal", ErrForbidden)
	default:
		return fmt.Errorf("%w: %s", ErrForbidden, action)
	}
}
