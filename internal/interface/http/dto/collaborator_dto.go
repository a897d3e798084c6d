package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
)

type OpenDisputeRequest struct {
	Type         string `json:"type" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description" binding:"required"`
	RespondentID string `json:"respondent_id" binding:"required"`
}

type ChangeDisputeStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	Resolution string `json:"resolution"`
}

type DisputeResponse struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	InitiatorID  uuid.UUID  `json:"initiator_id"`
	RespondentID uuid.UUID  `json:"respondent_id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Resolution   *string    `json:"resolution,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

func ToDisputeResponse(d *entity.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		InitiatorID:  d.InitiatorID,
		RespondentID: d.RespondentID,
		Type:         string(d.Type),
		Title:        d.Title,
		Description:  d.Description,
		Status:       string(d.Status),
		Resolution:   d.Resolution,
		CreatedAt:    d.CreatedAt,
		ResolvedAt:   d.ResolvedAt,
	}
}

func ToDisputeResponses(disputes []entity.Dispute) []DisputeResponse {
	out := make([]DisputeResponse, 0, len(disputes))
	for i := range disputes {
		out = append(out, ToDisputeResponse(&disputes[i]))
	}
	return out
}

type PaymentResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ExternalID  *string   `json:"external_id,omitempty"`
	RedirectURL *string   `json:"redirect_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToPaymentResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		ProjectID:   p.ProjectID,
		Amount:      p.Amount.Amount,
		Currency:    p.Amount.Currency,
		Status:      string(p.Status),
		ExternalID:  p.ExternalID,
		RedirectURL: p.RedirectURL,
		CreatedAt:   p.CreatedAt,
	}
}

// PaymentCallbackRequest: тело вебхука платёжного шлюза.
type PaymentCallbackRequest struct {
	ExternalID string `json:"external_id" binding:"required"`
	Status     string `json:"status" binding:"required"`
	Reason     string `json:"reason"`
}

type PaymentCallbackResponse struct {
	Payment       PaymentResponse `json:"payment"`
	Duplicate     bool            `json:"duplicate"`
	ProjectStatus string          `json:"project_status,omitempty"`
}

type SubmitApplicationRequest struct {
	CoverLetter    string   `json:"cover_letter"`
	ProposedAmount *float64 `json:"proposed_amount"`
}

type ApplicationResponse struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	CoverLetter    string    `json:"cover_letter"`
	ProposedAmount *float64  `json:"proposed_amount,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToApplicationResponse(a *entity.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:             a.ID,
		ProjectID:      a.ProjectID,
		ProfessionalID: a.ProfessionalID,
		CoverLetter:    a.CoverLetter,
		ProposedAmount: a.ProposedAmount,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
	}
}

func ToApplicationResponses(apps []entity.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, ToApplicationResponse(&apps[i]))
	}
	return out
}
