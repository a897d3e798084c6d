package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

// Transactor выполняет fn в одной транзакции. Репозитории, получившие ctx из fn,
// пишут в эту же транзакцию.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	// FindByID возвращает apperror.ErrProjectNotFound, если проекта нет.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
	// CompareAndSwapStatus: единственная запись статуса. Возвращает
	// apperror.ErrStatusConflict, если статус или версия уже изменились.
	CompareAndSwapStatus(ctx context.Context, update StatusUpdate) error
	SetAssignedProfessional(ctx context.Context, projectID, professionalID uuid.UUID, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, projectID uuid.UUID, status valueobject.ProjectPaymentStatus, at time.Time) error
}

// StatusUpdate описывает условную запись статуса проекта.
type StatusUpdate struct {
	ProjectID       uuid.UUID
	ExpectedStatus  valueobject.ProjectStatus
	ExpectedVersion int64
	NewStatus       valueobject.ProjectStatus
	UpdatedAt       time.Time
}

// TransitionRepository: журнал только на добавление.
type TransitionRepository interface {
	Append(ctx context.Context, record *entity.TransitionRecord) error
	// ListByProject возвращает записи в порядке occurred_at.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.TransitionRecord, error)
}
