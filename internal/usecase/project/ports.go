package project

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

const (
	EventStatusChanged = "project_status_changed"
	EventDisputeOpened = "dispute_opened"
)

// Event: уведомление о применённом переходе.
type Event struct {
	Type       string                    `json:"type"`
	ProjectID  uuid.UUID                 `json:"project_id"`
	FromStatus valueobject.ProjectStatus `json:"from_status"`
	ToStatus   valueobject.ProjectStatus `json:"to_status"`
	ActorID    uuid.UUID                 `json:"actor_id"`
	DisputeID  *uuid.UUID                `json:"dispute_id,omitempty"`
	Recipients []uuid.UUID               `json:"-"`
}

// Notifier доставляет события без ожидания результата. Ошибки доставки
// на исход перехода не влияют.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// PaymentRequest: данные для инициации платежа во внешнем шлюзе.
type PaymentRequest struct {
	PaymentID uuid.UUID
	ProjectID uuid.UUID
	Amount    valueobject.Money
	PayerID   uuid.UUID
	PayeeID   uuid.UUID
}

// PaymentSession: ответ шлюза: идентификатор платежа и адрес для оплаты.
type PaymentSession struct {
	ExternalID  string
	RedirectURL string
}

type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, Event) {}
