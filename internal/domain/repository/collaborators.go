package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
)

type DisputeRepository interface {
	// Create возвращает ошибку CONFLICT, если у проекта уже есть активный спор.
	Create(ctx context.Context, dispute *entity.Dispute) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error)
	// FindActiveByProject возвращает nil, nil, если активного спора нет.
	FindActiveByProject(ctx context.Context, projectID uuid.UUID) (*entity.Dispute, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.Dispute, error)
	Update(ctx context.Context, dispute *entity.Dispute) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.Payment, error)
	// FindLatestByProject возвращает nil, nil, если платежей ещё не было.
	FindLatestByProject(ctx context.Context, projectID uuid.UUID) (*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.Application, error)
	Withdraw(ctx context.Context, id uuid.UUID, at time.Time) error
	// ResolveForAssignment принимает заявку выбранного исполнителя и отклоняет
	// остальные ожидающие заявки проекта.
	ResolveForAssignment(ctx context.Context, projectID, professionalID uuid.UUID, at time.Time) (accepted, rejected int64, err error)
}

type ArchiveRepository interface {
	Create(ctx context.Context, record *entity.ArchiveRecord) error
	FindByProject(ctx context.Context, projectID uuid.UUID) (*entity.ArchiveRecord, error)
	AppendNote(ctx context.Context, projectID uuid.UUID, note string, at time.Time) error
}
