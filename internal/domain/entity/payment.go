package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

// Payment: платёж по проекту; статус меняет только колбэк шлюза.
type Payment struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	PayerID       uuid.UUID
	PayeeID       uuid.UUID
	Amount        valueobject.Money
	Status        valueobject.PaymentStatus
	ExternalID    *string
	RedirectURL   *string
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Payment) IsCompleted() bool {
	return p.Status == valueobject.PaymentStatusCompleted
}

// IsOutstanding: платёж ещё в работе или уже проведён, новый создавать нельзя.
func (p *Payment) IsOutstanding() bool {
	return p.Status == valueobject.PaymentStatusPending ||
		p.Status == valueobject.PaymentStatusProcessing ||
		p.Status == valueobject.PaymentStatusCompleted
}
