package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type ProjectRepository struct {
	store *Store
}

func NewProjectRepository(store *Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.projects[project.ID]; ok {
			return apperror.New(apperror.ErrCodeConflict, "проект уже существует")
		}
		r.store.projects[project.ID] = project.Clone()
		return nil
	})
}

func (r *ProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	var project *entity.Project
	r.store.read(func() {
		if p, ok := r.store.projects[id]; ok {
			project = p.Clone()
		}
	})
	if project == nil {
		return nil, apperror.ErrProjectNotFound
	}
	return project, nil
}

func (r *ProjectRepository) CompareAndSwapStatus(ctx context.Context, u repository.StatusUpdate) error {
	return r.store.write(ctx, func() error {
		p, ok := r.store.projects[u.ProjectID]
		if !ok {
			return apperror.ErrProjectNotFound
		}
		if p.Status != u.ExpectedStatus || p.Version != u.ExpectedVersion {
			return apperror.ErrStatusConflict
		}
		p.Status = u.NewStatus
		p.Version++
		p.UpdatedAt = u.UpdatedAt
		return nil
	})
}

func (r *ProjectRepository) SetAssignedProfessional(ctx context.Context, projectID, professionalID uuid.UUID, at time.Time) error {
	return r.store.write(ctx, func() error {
		p, ok := r.store.projects[projectID]
		if !ok {
			return apperror.ErrProjectNotFound
		}
		id := professionalID
		p.AssignedProfessionalID = &id
		p.Version++
		p.UpdatedAt = at
		return nil
	})
}

func (r *ProjectRepository) UpdatePaymentStatus(ctx context.Context, projectID uuid.UUID, status valueobject.ProjectPaymentStatus, at time.Time) error {
	return r.store.write(ctx, func() error {
		p, ok := r.store.projects[projectID]
		if !ok {
			return apperror.ErrProjectNotFound
		}
		p.PaymentStatus = status
		p.Version++
		p.UpdatedAt = at
		return nil
	})
}

// List возвращает все проекты по времени создания (CLI).
func (r *ProjectRepository) List(ctx context.Context) ([]*entity.Project, error) {
	var result []*entity.Project
	r.store.read(func() {
		for _, p := range r.store.projects {
			result = append(result, p.Clone())
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type TransitionRepository struct {
	store *Store
}

func NewTransitionRepository(store *Store) *TransitionRepository {
	return &TransitionRepository{store: store}
}

func (r *TransitionRepository) Append(ctx context.Context, record *entity.TransitionRecord) error {
	return r.store.write(ctx, func() error {
		r.store.transitions[record.ProjectID] = append(r.store.transitions[record.ProjectID], *record)
		return nil
	})
}

func (r *TransitionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.TransitionRecord, error) {
	var result []entity.TransitionRecord
	r.store.read(func() {
		result = append([]entity.TransitionRecord{}, r.store.transitions[projectID]...)
	})
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt.Before(result[j].OccurredAt) })
	return result, nil
}
