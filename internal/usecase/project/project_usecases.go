package project

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

// authorizeRead: участники и администратор видят проект всегда, исполнители только пока он открыт.
func authorizeRead(p *entity.Project, actor entity.Actor) error {
	switch {
	case actor.Role == valueobject.ActorRoleAdmin, actor.Role == valueobject.ActorRoleSystem:
		return nil
	case p.IsParticipant(actor.ID):
		return nil
	case actor.Role == valueobject.ActorRoleProfessional && p.Status == valueobject.ProjectStatusOpen:
		return nil
	}
	return apperror.ErrForbidden
}

type CreateProjectInput struct {
	Title    string
	Budget   float64
	Currency string
}

type CreateProjectUseCase struct {
	projectRepo repository.ProjectRepository
}

func NewCreateProjectUseCase(projectRepo repository.ProjectRepository) *CreateProjectUseCase {
	return &CreateProjectUseCase{projectRepo: projectRepo}
}

// Execute создаёт проект в статусе draft. Журнал переходов при этом пуст.
func (uc *CreateProjectUseCase) Execute(ctx context.Context, actor entity.Actor, input CreateProjectInput) (*entity.Project, error) {
	if actor.Role != valueobject.ActorRoleClient {
		return nil, apperror.New(apperror.ErrCodeForbidden, "создавать проекты может только заказчик")
	}

	project, err := entity.NewProject(actor.ID, input.Title, input.Budget, input.Currency)
	if err != nil {
		return nil, err
	}

	if err := uc.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

type GetProjectUseCase struct {
	projectRepo repository.ProjectRepository
}

func NewGetProjectUseCase(projectRepo repository.ProjectRepository) *GetProjectUseCase {
	return &GetProjectUseCase{projectRepo: projectRepo}
}

func (uc *GetProjectUseCase) Execute(ctx context.Context, projectID uuid.UUID, actor entity.Actor) (*entity.Project, error) {
	project, err := uc.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(project, actor); err != nil {
		return nil, err
	}
	return project, nil
}

// AppendArchiveNoteUseCase: единственное изменение, допустимое для архивного проекта.
type AppendArchiveNoteUseCase struct {
	projectRepo repository.ProjectRepository
	archiveRepo repository.ArchiveRepository
}

func NewAppendArchiveNoteUseCase(projectRepo repository.ProjectRepository, archiveRepo repository.ArchiveRepository) *AppendArchiveNoteUseCase {
	return &AppendArchiveNoteUseCase{projectRepo: projectRepo, archiveRepo: archiveRepo}
}

func (uc *AppendArchiveNoteUseCase) Execute(ctx context.Context, projectID uuid.UUID, actor entity.Actor, note string) (*entity.ArchiveRecord, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "заметка не может быть пустой")
	}

	project, err := uc.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if actor.Role != valueobject.ActorRoleAdmin && !(actor.Role == valueobject.ActorRoleClient && project.IsOwnedBy(actor.ID)) {
		return nil, apperror.ErrForbidden
	}
	if !project.IsReadOnly() {
		return nil, apperror.New(apperror.ErrCodePreconditionFailed, "заметки архива доступны только для архивного проекта")
	}

	if err := uc.archiveRepo.AppendNote(ctx, projectID, note, time.Now().UTC()); err != nil {
		return nil, err
	}
	return uc.archiveRepo.FindByProject(ctx, projectID)
}
