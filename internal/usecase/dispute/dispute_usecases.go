package dispute

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// ChangeStatusUseCase ведёт спор по его собственной машине состояний.
// Статус проекта при этом не меняется.
type ChangeStatusUseCase struct {
	disputeRepo repository.DisputeRepository
	now         func() time.Time
}

func NewChangeStatusUseCase(disputeRepo repository.DisputeRepository) *ChangeStatusUseCase {
	return &ChangeStatusUseCase{
		disputeRepo: disputeRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ChangeStatusUseCase) Execute(ctx context.Context, disputeID uuid.UUID, actor entity.Actor, status valueobject.DisputeStatus, resolution string) (*entity.Dispute, error) {
	if actor.Role != valueobject.ActorRoleAdmin {
		return nil, apperror.New(apperror.ErrCodeForbidden, "менять статус спора может только администратор")
	}
	if !status.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}

	d, err := uc.disputeRepo.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	from := d.Status
	if err := d.ChangeStatus(status, resolution, uc.now()); err != nil {
		return nil, err
	}
	if err := uc.disputeRepo.Update(ctx, d); err != nil {
		return nil, err
	}

	logger.WithProject(d.ProjectID).WithFields(logrus.Fields{
		"dispute_id": d.ID,
		"from":       from,
		"to":         d.Status,
		"actor_id":   actor.ID,
	}).Info("статус спора изменён")
	return d, nil
}

type ListUseCase struct {
	projectRepo repository.ProjectRepository
	disputeRepo repository.DisputeRepository
}

func NewListUseCase(projectRepo repository.ProjectRepository, disputeRepo repository.DisputeRepository) *ListUseCase {
	return &ListUseCase{projectRepo: projectRepo, disputeRepo: disputeRepo}
}

// Execute возвращает споры проекта участнику или администратору.
func (uc *ListUseCase) Execute(ctx context.Context, projectID uuid.UUID, actor entity.Actor) ([]entity.Dispute, error) {
	p, err := uc.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.Role != valueobject.ActorRoleAdmin && !p.IsParticipant(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return uc.disputeRepo.ListByProject(ctx, projectID)
}
