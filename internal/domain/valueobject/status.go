package valueobject

import "github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"

// ProjectStatus: состояние жизненного цикла проекта.
type ProjectStatus string

const (
	ProjectStatusDraft                 ProjectStatus = "draft"
	ProjectStatusOpen                  ProjectStatus = "open"
	ProjectStatusAssigned              ProjectStatus = "assigned"
	ProjectStatusInProgress            ProjectStatus = "in_progress"
	ProjectStatusWorkSubmitted         ProjectStatus = "work_submitted"
	ProjectStatusWorkRevisionRequested ProjectStatus = "work_revision_requested"
	ProjectStatusWorkApproved          ProjectStatus = "work_approved"
	ProjectStatusCompleted             ProjectStatus = "completed"
	ProjectStatusArchived              ProjectStatus = "archived"
	ProjectStatusCancelled             ProjectStatus = "cancelled"
	// ProjectStatusDisputed: признак открытого спора, а не самостоятельное состояние.
	ProjectStatusDisputed ProjectStatus = "disputed"
)

// AllProjectStatuses перечисляет все статусы в порядке жизненного цикла.
var AllProjectStatuses = []ProjectStatus{
	ProjectStatusDraft,
	ProjectStatusOpen,
	ProjectStatusAssigned,
	ProjectStatusInProgress,
	ProjectStatusWorkSubmitted,
	ProjectStatusWorkRevisionRequested,
	ProjectStatusWorkApproved,
	ProjectStatusCompleted,
	ProjectStatusArchived,
	ProjectStatusCancelled,
	ProjectStatusDisputed,
}

func (s ProjectStatus) IsValid() bool {
	for _, known := range AllProjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s ProjectStatus) String() string {
	return string(s)
}

// ActorRole: роль участника, инициирующего переход.
type ActorRole string

const (
	ActorRoleClient       ActorRole = "client"
	ActorRoleProfessional ActorRole = "professional"
	ActorRoleAdmin        ActorRole = "admin"
	ActorRoleSystem       ActorRole = "system"
)

func (r ActorRole) IsValid() bool {
	switch r {
	case ActorRoleClient, ActorRoleProfessional, ActorRoleAdmin, ActorRoleSystem:
		return true
	}
	return false
}

func NewActorRole(role string) (ActorRole, error) {
	r := ActorRole(role)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректная роль пользователя")
	}
	return r, nil
}

// ProjectPaymentStatus: сводный статус оплаты на самом проекте.
type ProjectPaymentStatus string

const (
	ProjectPaymentUnpaid    ProjectPaymentStatus = "unpaid"
	ProjectPaymentPending   ProjectPaymentStatus = "pending"
	ProjectPaymentCompleted ProjectPaymentStatus = "completed"
	ProjectPaymentFailed    ProjectPaymentStatus = "failed"
)

// PaymentStatus: статус отдельного платежа, управляется шлюзом.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// IsFinal возвращает true для статусов, которые шлюз больше не меняет.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// ProjectPayment отображает статус платежа в сводный статус проекта.
func (s PaymentStatus) ProjectPayment() ProjectPaymentStatus {
	switch s {
	case PaymentStatusCompleted:
		return ProjectPaymentCompleted
	case PaymentStatusFailed, PaymentStatusRefunded:
		return ProjectPaymentFailed
	default:
		return ProjectPaymentPending
	}
}

type DisputeType string

const (
	DisputeTypeQuality       DisputeType = "quality"
	DisputeTypeTimeline      DisputeType = "timeline"
	DisputeTypePayment       DisputeType = "payment"
	DisputeTypeCommunication DisputeType = "communication"
	DisputeTypeScope         DisputeType = "scope"
	DisputeTypeOther         DisputeType = "other"
)

func (t DisputeType) IsValid() bool {
	switch t {
	case DisputeTypeQuality, DisputeTypeTimeline, DisputeTypePayment,
		DisputeTypeCommunication, DisputeTypeScope, DisputeTypeOther:
		return true
	}
	return false
}

// DisputeStatus: собственная небольшая машина состояний спора.
type DisputeStatus string

const (
	DisputeStatusOpen      DisputeStatus = "open"
	DisputeStatusInReview  DisputeStatus = "in_review"
	DisputeStatusResolved  DisputeStatus = "resolved"
	DisputeStatusEscalated DisputeStatus = "escalated"
	DisputeStatusClosed    DisputeStatus = "closed"
)

func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusInReview, DisputeStatusResolved,
		DisputeStatusEscalated, DisputeStatusClosed:
		return true
	}
	return false
}

// IsActive: спор ещё не урегулирован и блокирует завершение проекта.
func (s DisputeStatus) IsActive() bool {
	return s == DisputeStatusOpen || s == DisputeStatusInReview || s == DisputeStatusEscalated
}

func (s DisputeStatus) CanTransitionTo(newStatus DisputeStatus) bool {
	transitions := map[DisputeStatus][]DisputeStatus{
		DisputeStatusOpen:      {DisputeStatusInReview, DisputeStatusClosed},
		DisputeStatusInReview:  {DisputeStatusResolved, DisputeStatusEscalated},
		DisputeStatusEscalated: {DisputeStatusResolved},
		DisputeStatusResolved:  {DisputeStatusClosed},
		DisputeStatusClosed:    {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewDisputeStatus(status string) (DisputeStatus, error) {
	s := DisputeStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}
	return s, nil
}

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// TransitionOutcome: итог попытки перехода в журнале.
type TransitionOutcome string

const (
	OutcomeApplied  TransitionOutcome = "applied"
	OutcomeRejected TransitionOutcome = "rejected"
)
