package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type SubmitInput struct {
	CoverLetter    string
	ProposedAmount *float64
}

type SubmitUseCase struct {
	projectRepo     repository.ProjectRepository
	applicationRepo repository.ApplicationRepository
}

func NewSubmitUseCase(projectRepo repository.ProjectRepository, applicationRepo repository.ApplicationRepository) *SubmitUseCase {
	return &SubmitUseCase{projectRepo: projectRepo, applicationRepo: applicationRepo}
}

// Execute подаёт отклик исполнителя на открытый проект.
func (uc *SubmitUseCase) Execute(ctx context.Context, projectID uuid.UUID, actor entity.Actor, input SubmitInput) (*entity.Application, error) {
	if actor.Role != valueobject.ActorRoleProfessional {
		return nil, apperror.New(apperror.ErrCodeForbidden, "откликаться на проекты могут только исполнители")
	}
	if input.ProposedAmount != nil && *input.ProposedAmount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "предложенная сумма не может быть отрицательной")
	}

	p, err := uc.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.IsOwnedBy(actor.ID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя откликнуться на свой проект")
	}
	if p.Status != valueobject.ProjectStatusOpen {
		return nil, apperror.New(apperror.ErrCodePreconditionFailed, "проект не принимает отклики")
	}

	now := time.Now().UTC()
	app := &entity.Application{
		ID:             uuid.New(),
		ProjectID:      projectID,
		ProfessionalID: actor.ID,
		CoverLetter:    strings.TrimSpace(input.CoverLetter),
		ProposedAmount: input.ProposedAmount,
		Status:         valueobject.ApplicationStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.applicationRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

type WithdrawUseCase struct {
	applicationRepo repository.ApplicationRepository
}

func NewWithdrawUseCase(applicationRepo repository.ApplicationRepository) *WithdrawUseCase {
	return &WithdrawUseCase{applicationRepo: applicationRepo}
}

func (uc *WithdrawUseCase) Execute(ctx context.Context, applicationID uuid.UUID, actor entity.Actor) error {
	app, err := uc.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.ProfessionalID != actor.ID {
		return apperror.ErrForbidden
	}
	return uc.applicationRepo.Withdraw(ctx, applicationID, time.Now().UTC())
}

type ListUseCase struct {
	projectRepo     repository.ProjectRepository
	applicationRepo repository.ApplicationRepository
}

func NewListUseCase(projectRepo repository.ProjectRepository, applicationRepo repository.ApplicationRepository) *ListUseCase {
	return &ListUseCase{projectRepo: projectRepo, applicationRepo: applicationRepo}
}

// Execute возвращает все отклики заказчику и администратору, исполнителю только его собственные.
func (uc *ListUseCase) Execute(ctx context.Context, projectID uuid.UUID, actor entity.Actor) ([]entity.Application, error) {
	p, err := uc.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	apps, err := uc.applicationRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if actor.Role == valueobject.ActorRoleAdmin || p.IsOwnedBy(actor.ID) {
		return apps, nil
	}

	own := make([]entity.Application, 0, 1)
	for _, app := range apps {
		if app.ProfessionalID == actor.ID {
			own = append(own, app)
		}
	}
	return own, nil
}
