package authz

import (
	"errors"
	"testing"

	"fileflow/auth"
)

func TestAuthorize_AnonymousRejected(t *testing.T) {
	err := Authorize(Principal{}, ActionViewFiling, Resource{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorize_OperatorsMayDoEverything(t *testing.T) {
	actions := []Action{
		ActionSubmitIntake, ActionViewFiling, ActionListAllFilings, ActionMarkPaid,
		ActionRequeueFiling, ActionQueueRun, ActionSimulateRun, ActionCreateAdapter,
		ActionToggleAdapter, ActionListAdapters, ActionBackfillPayment,
		ActionRecordPayment, ActionViewWebhooks, ActionSendMessage, ActionViewInbox,
	}
	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleOps} {
		p := Principal{UserID: "op-1", Role: role}
		for _, action := range actions {
			if err := Authorize(p, action, Resource{}); err != nil {
				t.Errorf("%s/%s: expected allow, got %v", role, action, err)
			}
		}
	}
}

func TestAuthorize_CustomerBlockedFromOperatorActions(t *testing.T) {
	p := Principal{UserID: "cust-1", Role: auth.RoleCustomer}
	blocked := []Action{
		ActionListAllFilings, ActionMarkPaid, ActionRequeueFiling, ActionQueueRun,
		ActionSimulateRun, ActionCreateAdapter, ActionToggleAdapter,
		ActionListAdapters, ActionBackfillPayment, ActionViewWebhooks, ActionViewInbox,
	}
	for _, action := range blocked {
		if err := Authorize(p, action, Resource{}); !errors.Is(err, ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", action, err)
		}
	}
}

func TestAuthorize_CustomerSelfServiceActions(t *testing.T) {
	p := Principal{UserID: "cust-1", Role: auth.RoleCustomer}
	for _, action := range []Action{ActionSubmitIntake, ActionSendMessage, ActionRecordPayment} {
		if err := Authorize(p, action, Resource{}); err != nil {
			t.Errorf("%s: expected allow, got %v", action, err)
		}
	}
}

func TestAuthorize_CustomerOwnershipOnView(t *testing.T) {
	p := Principal{UserID: "cust-1", Role: auth.RoleCustomer}

	if err := Authorize(p, ActionViewFiling, Resource{OwnerID: "cust-1"}); err != nil {
		t.Fatalf("expected owner to view own filing, got %v", err)
	}

	err := Authorize(p, ActionViewFiling, Resource{OwnerID: "cust-2"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign filing, got %v", err)
	}

	err = Authorize(p, ActionViewFiling, Resource{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without ownership, got %v", err)
	}
}
