package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
)

type CreateProjectRequest struct {
	Title    string  `json:"title" binding:"required"`
	Budget   float64 `json:"budget" binding:"gte=0"`
	Currency string  `json:"currency"`
}

// TransitionRequest: тело POST /projects/:id/transitions. Payload разбирается
// по целевому статусу.
type TransitionRequest struct {
	TargetStatus string          `json:"target_status" binding:"required"`
	Payload      json.RawMessage `json:"payload"`
}

type ArchiveNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

type ProjectResponse struct {
	ID                     uuid.UUID  `json:"id"`
	ClientID               uuid.UUID  `json:"client_id"`
	AssignedProfessionalID *uuid.UUID `json:"assigned_professional_id"`
	Title                  string     `json:"title"`
	Budget                 float64    `json:"budget"`
	Currency               string     `json:"currency"`
	Status                 string     `json:"status"`
	PaymentStatus          string     `json:"payment_status"`
	Version                int64      `json:"version"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func ToProjectResponse(p *entity.Project) ProjectResponse {
	return ProjectResponse{
		ID:                     p.ID,
		ClientID:               p.ClientID,
		AssignedProfessionalID: p.AssignedProfessionalID,
		Title:                  p.Title,
		Budget:                 p.Budget.Amount,
		Currency:               p.Budget.Currency,
		Status:                 string(p.Status),
		PaymentStatus:          string(p.PaymentStatus),
		Version:                p.Version,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

type TransitionRecordResponse struct {
	ID         uuid.UUID       `json:"id"`
	FromStatus string          `json:"from_status"`
	ToStatus   string          `json:"to_status"`
	ActorID    uuid.UUID       `json:"actor_id"`
	ActorRole  string          `json:"actor_role"`
	Outcome    string          `json:"outcome"`
	Reason     string          `json:"reason,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func ToTransitionRecordResponse(r entity.TransitionRecord) TransitionRecordResponse {
	return TransitionRecordResponse{
		ID:         r.ID,
		FromStatus: string(r.FromStatus),
		ToStatus:   string(r.ToStatus),
		ActorID:    r.ActorID,
		ActorRole:  string(r.ActorRole),
		Outcome:    string(r.Outcome),
		Reason:     r.Reason,
		Metadata:   r.Metadata,
		OccurredAt: r.OccurredAt,
	}
}

func ToTransitionRecordResponses(records []entity.TransitionRecord) []TransitionRecordResponse {
	out := make([]TransitionRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToTransitionRecordResponse(r))
	}
	return out
}

type TransitionResponse struct {
	Project       ProjectResponse           `json:"project"`
	AppliedStatus string                    `json:"applied_status"`
	Record        *TransitionRecordResponse `json:"record,omitempty"`
	Dispute       *DisputeResponse          `json:"dispute,omitempty"`
	Payment       *PaymentResponse          `json:"payment,omitempty"`
}

func ToTransitionResponse(res *project.Result) TransitionResponse {
	out := TransitionResponse{
		Project:       ToProjectResponse(res.Project),
		AppliedStatus: string(res.AppliedStatus),
	}
	if res.Record != nil {
		rec := ToTransitionRecordResponse(*res.Record)
		out.Record = &rec
	}
	if res.Dispute != nil {
		d := ToDisputeResponse(res.Dispute)
		out.Dispute = &d
	}
	if res.Payment != nil {
		p := ToPaymentResponse(res.Payment)
		out.Payment = &p
	}
	return out
}

type ActionsResponse struct {
	Status           string   `json:"status"`
	AvailableActions []string `json:"available_actions"`
}

func ToActionsResponse(status valueobject.ProjectStatus, actions []valueobject.ProjectStatus) ActionsResponse {
	out := ActionsResponse{Status: string(status), AvailableActions: make([]string, 0, len(actions))}
	for _, a := range actions {
		out.AvailableActions = append(out.AvailableActions, string(a))
	}
	return out
}

type ArchiveResponse struct {
	ProjectID  uuid.UUID `json:"project_id"`
	ArchivedBy uuid.UUID `json:"archived_by"`
	Reason     string    `json:"reason"`
	Notes      []string  `json:"notes"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ToArchiveResponse(a *entity.ArchiveRecord) ArchiveResponse {
	notes := a.Notes
	if notes == nil {
		notes = []string{}
	}
	return ArchiveResponse{
		ProjectID:  a.ProjectID,
		ArchivedBy: a.ArchivedBy,
		Reason:     a.Reason,
		Notes:      notes,
		UpdatedAt:  a.UpdatedAt,
	}
}
