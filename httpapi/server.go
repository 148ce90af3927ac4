// Package httpapi exposes the filing pipeline over JSON HTTP. Handlers stay
// thin: decode, authorize, delegate to a service, map sentinel errors to
// status codes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fileflow/adapter"
	"fileflow/auth"
	"fileflow/filing"
	"fileflow/message"
	"fileflow/payment"
	"fileflow/run"
	"fileflow/task"
	"fileflow/webhook"
)

// AuthService is the identity surface the server needs.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Profile, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

// FilingService covers intake submission and operator stage actions.
type FilingService interface {
	SubmitIntake(ctx context.Context, params filing.SubmitIntakeParams) (filing.Filing, error)
	MarkPaid(ctx context.Context, filingID string) (int64, error)
	Requeue(ctx context.Context, filingID string) error
}

// FilingReader is the read side of the filing repository.
type FilingReader interface {
	GetByID(ctx context.Context, id string) (filing.Filing, error)
	GetOwnedByID(ctx context.Context, id, ownerID string) (filing.Filing, error)
	ListForOwner(ctx context.Context, ownerID string, limit int) ([]filing.Filing, error)
	ListAll(ctx context.Context, limit int) ([]filing.Filing, error)
}

// RunService is the run engine surface.
type RunService interface {
	Queue(ctx context.Context, filingID string) (run.Run, error)
	Simulate(ctx context.Context, runID string, outcome run.Status) (run.Run, error)
}

// RunReader lists runs for the filing detail view.
type RunReader interface {
	ListForFiling(ctx context.Context, filingID string) ([]run.Run, error)
}

// AdapterRegistry is the operator surface of the adapter registry.
type AdapterRegistry interface {
	Create(ctx context.Context, params adapter.CreateParams) (adapter.Adapter, error)
	Toggle(ctx context.Context, id string, enabled bool) (adapter.Adapter, error)
	List(ctx context.Context) ([]adapter.Adapter, error)
}

// WebhookIngest handles inbound automation events.
type WebhookIngest interface {
	HandleAutomationEvent(ctx context.Context, ev webhook.AutomationEvent) (webhook.IngestResult, error)
}

// WebhookLog lists the audit trail for the operator screen.
type WebhookLog interface {
	List(ctx context.Context, limit int) ([]webhook.Webhook, error)
}

// PaymentService records captures and runs the backfill job.
type PaymentService interface {
	Record(ctx context.Context, params payment.RecordParams) (payment.RecordResult, error)
	Backfill(ctx context.Context) (payment.BackfillResult, error)
}

// PaymentReader lists payments for the filing detail view.
type PaymentReader interface {
	ListForFiling(ctx context.Context, filingID string) ([]payment.Payment, error)
}

// TaskReader lists the task ledger for the filing detail view.
type TaskReader interface {
	ListForFiling(ctx context.Context, filingID string) ([]task.Task, error)
}

// MessageStore covers the append-only message trail.
type MessageStore interface {
	Append(ctx context.Context, filingID *string, fromRole, body string) (message.Message, error)
	ListForFiling(ctx context.Context, filingID string) ([]message.Message, error)
	ListInbox(ctx context.Context, limit int) ([]message.Message, error)
}

// Server holds the wired services behind narrow interfaces so handlers can
// be unit tested with stubs.
type Server struct {
	authService    AuthService
	filingService  FilingService
	filings        FilingReader
	runService     RunService
	runs           RunReader
	registry       AdapterRegistry
	webhookService WebhookIngest
	webhookLog     WebhookLog
	paymentService PaymentService
	payments       PaymentReader
	tasks          TaskReader
	messages       MessageStore
}

// Deps enumerates everything a fully functional Server needs.
type Deps struct {
	Auth           AuthService
	FilingService  FilingService
	Filings        FilingReader
	RunService     RunService
	Runs           RunReader
	Registry       AdapterRegistry
	WebhookService WebhookIngest
	WebhookLog     WebhookLog
	PaymentService PaymentService
	Payments       PaymentReader
	Tasks          TaskReader
	Messages       MessageStore
}

// NewServer builds a Server from wired dependencies.
func NewServer(deps Deps) *Server {
	return &Server{
		authService:    deps.Auth,
		filingService:  deps.FilingService,
		filings:        deps.Filings,
		runService:     deps.RunService,
		runs:           deps.Runs,
		registry:       deps.Registry,
		webhookService: deps.WebhookService,
		webhookLog:     deps.WebhookLog,
		paymentService: deps.PaymentService,
		payments:       deps.Payments,
		tasks:          deps.Tasks,
		messages:       deps.Messages,
	}
}

// Routes mounts the full JSON surface on a chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/public/name-availability", s.handleNameAvailability)

		// Inbound automation callbacks are route-gated, not role-gated;
		// the external actor has no profile.
		r.Post("/webhooks/automation", s.handleAutomationWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/filings", s.handleSubmitIntake)
			r.Get("/filings", s.handleListFilings)
			r.Get("/filings/{id}", s.handleFilingDetail)
			r.Post("/filings/{id}/mark-paid", s.handleMarkPaid)
			r.Post("/filings/{id}/requeue", s.handleRequeue)

			r.Post("/runs", s.handleQueueRun)
			r.Post("/runs/{id}/simulate", s.handleSimulateRun)

			r.Post("/adapters", s.handleCreateAdapter)
			r.Get("/adapters", s.handleListAdapters)
			r.Post("/adapters/{id}/toggle", s.handleToggleAdapter)

			r.Post("/payments/backfill", s.handleBackfill)
			r.Post("/checkout/mock/process", s.handleMockCheckout)

			r.Get("/webhooks", s.handleListWebhooks)

			r.Post("/messages", s.handleSendMessage)
			r.Get("/messages", s.handleListMessages)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, envelope{"ok": true, "status": "ok"})
}
