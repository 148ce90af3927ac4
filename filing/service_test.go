package filing

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestSubmitIntake_Success(t *testing.T) {
	pool := &fakePool{}
	store := &fakeStore{}
	tasks := &fakeSeeder{}
	svc := NewService(pool, store, tasks, nil)

	f, err := svc.SubmitIntake(context.Background(), SubmitIntakeParams{
		OwnerID:          "owner-1",
		LegalName:        "Sunrise Trading LLC",
		StateCode:        "wy",
		QuotedTotalCents: 29900,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if store.business.FormationState != "WY" {
		t.Errorf("expected state code to be uppercased, got %q", store.business.FormationState)
	}
	if store.createParams.FilingType != TypeLLCFormation {
		t.Errorf("expected default filing type, got %q", store.createParams.FilingType)
	}
	if store.business.EntityType != EntityLLC {
		t.Errorf("expected default entity type, got %q", store.business.EntityType)
	}
	if f.Stage != StageIntake {
		t.Errorf("expected new filing in intake, got %q", f.Stage)
	}
	if tasks.seededFor != f.ID {
		t.Errorf("expected checklist seeded for %q, got %q", f.ID, tasks.seededFor)
	}
	if pool.tx == nil || !pool.tx.committed {
		t.Error("expected the intake transaction to commit")
	}
}

func TestSubmitIntake_Validation(t *testing.T) {
	svc := NewService(&fakePool{}, &fakeStore{}, &fakeSeeder{}, nil)

	cases := []SubmitIntakeParams{
		{LegalName: "Acme LLC", StateCode: "WY"},                        // missing owner
		{OwnerID: "o", LegalName: "  ", StateCode: "WY"},                // blank name
		{OwnerID: "o", LegalName: "Acme LLC", StateCode: "WYO"},         // bad state code
		{OwnerID: "o", LegalName: "Acme LLC", StateCode: "WY", FilingType: "MERGER"},
		{OwnerID: "o", LegalName: "Acme LLC", StateCode: "WY", QuotedTotalCents: -1},
	}
	for i, params := range cases {
		if _, err := svc.SubmitIntake(context.Background(), params); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestSubmitIntake_SeedFailureRollsBack(t *testing.T) {
	pool := &fakePool{}
	tasks := &fakeSeeder{err: errors.New("seed boom")}
	svc := NewService(pool, &fakeStore{}, tasks, nil)

	_, err := svc.SubmitIntake(context.Background(), SubmitIntakeParams{
		OwnerID:   "owner-1",
		LegalName: "Acme LLC",
		StateCode: "WY",
	})
	if err == nil {
		t.Fatal("expected seeding failure to surface")
	}
	if pool.tx.committed {
		t.Error("expected commit to be skipped")
	}
	if !pool.tx.rolled {
		t.Error("expected rollback")
	}
}

func TestMarkPaid_StampsQuoteAndNotes(t *testing.T) {
	pool := &fakePool{}
	store := &fakeStore{filing: Filing{ID: "f1", Stage: StageIntake, QuotedTotalCents: 29900}}
	notes := &fakeNotes{}
	svc := NewService(pool, store, &fakeSeeder{}, notes)

	amount, err := svc.MarkPaid(context.Background(), "f1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if amount != 29900 {
		t.Fatalf("expected quoted amount, got %d", amount)
	}
	if store.paidAmount != 29900 {
		t.Errorf("expected paid total stamped with quote, got %d", store.paidAmount)
	}
	if len(notes.bodies) != 1 || notes.bodies[0] != "Payment recorded: $299.00" {
		t.Errorf("unexpected note trail: %v", notes.bodies)
	}
	if !pool.tx.committed {
		t.Error("expected commit")
	}
}

func TestMarkPaid_UnknownFiling(t *testing.T) {
	store := &fakeStore{getErr: ErrNotFound}
	svc := NewService(&fakePool{}, store, &fakeSeeder{}, nil)

	if _, err := svc.MarkPaid(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequeue_OnlyFromErrorStages(t *testing.T) {
	store := &fakeStore{filing: Filing{ID: "f1", Stage: StageSubmitted}}
	svc := NewService(&fakePool{}, store, &fakeSeeder{}, nil)

	err := svc.Requeue(context.Background(), "f1")
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestRequeue_FromFailed(t *testing.T) {
	pool := &fakePool{}
	store := &fakeStore{filing: Filing{ID: "f1", Stage: StageFailed}}
	svc := NewService(pool, store, &fakeSeeder{}, nil)

	if err := svc.Requeue(context.Background(), "f1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if store.advancedTo != StageQueued {
		t.Errorf("expected advance to queued, got %q", store.advancedTo)
	}
	if !pool.tx.committed {
		t.Error("expected commit")
	}
}

type fakeStore struct {
	filing       Filing
	getErr       error
	business     CreateBusinessParams
	createParams CreateFilingParams
	paidAmount   int64
	advancedTo   Stage
	advanceErr   error
}

func (f *fakeStore) CreateBusinessTx(_ context.Context, _ pgx.Tx, params CreateBusinessParams) (Business, error) {
	f.business = params
	return Business{ID: "biz-1", OwnerID: params.OwnerID, LegalName: params.LegalName, FormationState: params.FormationState, EntityType: params.EntityType}, nil
}

func (f *fakeStore) CreateFilingTx(_ context.Context, _ pgx.Tx, params CreateFilingParams) (Filing, error) {
	f.createParams = params
	return Filing{
		ID:               "filing-1",
		BusinessID:       params.BusinessID,
		StateCode:        params.StateCode,
		FilingType:       params.FilingType,
		Stage:            StageIntake,
		QuotedTotalCents: params.QuotedTotalCents,
	}, nil
}

func (f *fakeStore) AdvanceStageTx(_ context.Context, _ pgx.Tx, _ string, next Stage) (Stage, bool, error) {
	if f.advanceErr != nil {
		return f.filing.Stage, false, f.advanceErr
	}
	prev := f.filing.Stage
	f.advancedTo = next
	return prev, prev != next, nil
}

func (f *fakeStore) SetPaidTotalTx(_ context.Context, _ pgx.Tx, _ string, amountCents int64) error {
	f.paidAmount = amountCents
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, _ string) (Filing, error) {
	if f.getErr != nil {
		return Filing{}, f.getErr
	}
	return f.filing, nil
}

type fakeSeeder struct {
	seededFor string
	err       error
}

func (f *fakeSeeder) SeedChecklistTx(_ context.Context, _ pgx.Tx, filingID string) error {
	if f.err != nil {
		return f.err
	}
	f.seededFor = filingID
	return nil
}

type fakeNotes struct {
	bodies []string
}

func (f *fakeNotes) AppendNoteTx(_ context.Context, _ pgx.Tx, _ string, _, body string) error {
	f.bodies = append(f.bodies, body)
	return nil
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
