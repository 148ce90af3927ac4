package httpapi

import (
	"encoding/json"
	"time"

	"fileflow/adapter"
	"fileflow/auth"
	"fileflow/filing"
	"fileflow/message"
	"fileflow/payment"
	"fileflow/run"
	"fileflow/task"
	"fileflow/webhook"
)

type profileResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
}

func toProfileResponse(p auth.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

type filingResponse struct {
	ID               string `json:"id"`
	BusinessID       string `json:"business_id"`
	StateCode        string `json:"state_code"`
	FilingType       string `json:"filing_type"`
	Stage            string `json:"stage"`
	QuotedTotalCents int64  `json:"quoted_total_cents"`
	PaidTotalCents   int64  `json:"paid_total_cents"`
	EINService       bool   `json:"ein_service"`
	MailForwarding   bool   `json:"mail_forwarding"`
	UseHostedAgent   bool   `json:"use_hosted_agent"`
	CreatedAt        string `json:"created_at"`
}

func toFilingResponse(f filing.Filing) filingResponse {
	return filingResponse{
		ID:               f.ID,
		BusinessID:       f.BusinessID,
		StateCode:        f.StateCode,
		FilingType:       string(f.FilingType),
		Stage:            string(f.Stage),
		QuotedTotalCents: f.QuotedTotalCents,
		PaidTotalCents:   f.PaidTotalCents,
		EINService:       f.EINService,
		MailForwarding:   f.MailForwarding,
		UseHostedAgent:   f.UseHostedAgent,
		CreatedAt:        f.CreatedAt.Format(time.RFC3339),
	}
}

func toFilingResponses(fs []filing.Filing) []filingResponse {
	out := make([]filingResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, toFilingResponse(f))
	}
	return out
}

type taskResponse struct {
	ID        string          `json:"id"`
	Seq       int             `json:"seq"`
	Code      string          `json:"code"`
	Label     string          `json:"label"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func toTaskResponses(ts []task.Task) []taskResponse {
	out := make([]taskResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, taskResponse{
			ID:        t.ID,
			Seq:       t.Seq,
			Code:      t.Code,
			Label:     t.Label,
			Status:    string(t.Status),
			Result:    t.Result,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

type runResponse struct {
	ID         string         `json:"id"`
	FilingID   string         `json:"filing_id"`
	AdapterID  string         `json:"adapter_id"`
	Status     string         `json:"status"`
	Log        []run.LogEntry `json:"log"`
	StartedAt  string         `json:"started_at"`
	FinishedAt *string        `json:"finished_at"`
}

func toRunResponse(r run.Run) runResponse {
	out := runResponse{
		ID:        r.ID,
		FilingID:  r.FilingID,
		AdapterID: r.AdapterID,
		Status:    string(r.Status),
		Log:       r.Log,
		StartedAt: r.StartedAt.Format(time.RFC3339),
	}
	if r.FinishedAt != nil {
		at := r.FinishedAt.Format(time.RFC3339)
		out.FinishedAt = &at
	}
	return out
}

func toRunResponses(rs []run.Run) []runResponse {
	out := make([]runResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRunResponse(r))
	}
	return out
}

type adapterResponse struct {
	ID         string  `json:"id"`
	StateCode  string  `json:"state_code"`
	FilingType string  `json:"filing_type"`
	Name       string  `json:"name"`
	Version    *string `json:"version"`
	Enabled    bool    `json:"enabled"`
	CreatedAt  string  `json:"created_at"`
}

func toAdapterResponse(a adapter.Adapter) adapterResponse {
	return adapterResponse{
		ID:         a.ID,
		StateCode:  a.StateCode,
		FilingType: a.FilingType,
		Name:       a.Name,
		Version:    a.Version,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}

type paymentResponse struct {
	ID          string `json:"id"`
	FilingID    string `json:"filing_id"`
	Status      string `json:"status"`
	Provider    string `json:"provider"`
	ProviderRef string `json:"provider_ref"`
	AmountCents int64  `json:"amount_cents"`
	CreatedAt   string `json:"created_at"`
}

func toPaymentResponse(p payment.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		FilingID:    p.FilingID,
		Status:      p.Status,
		Provider:    p.Provider,
		ProviderRef: p.ProviderRef,
		AmountCents: p.AmountCents,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func toPaymentResponses(ps []payment.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

type messageResponse struct {
	ID        string  `json:"id"`
	FilingID  *string `json:"filing_id"`
	FromRole  string  `json:"from_role"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"created_at"`
}

func toMessageResponses(ms []message.Message) []messageResponse {
	out := make([]messageResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, messageResponse{
			ID:        m.ID,
			FilingID:  m.FilingID,
			FromRole:  m.FromRole,
			Body:      m.Body,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

type webhookResponse struct {
	ID        string          `json:"id"`
	Direction string          `json:"direction"`
	Event     string          `json:"event"`
	Status    int             `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func toWebhookResponses(ws []webhook.Webhook) []webhookResponse {
	out := make([]webhookResponse, 0, len(ws))
	for _, wh := range ws {
		out = append(out, webhookResponse{
			ID:        wh.ID,
			Direction: wh.Direction,
			Event:     wh.Event,
			Status:    wh.Status,
			Payload:   wh.Payload,
			CreatedAt: wh.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
