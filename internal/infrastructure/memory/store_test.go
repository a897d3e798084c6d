package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

func seedProject(t *testing.T, repo *ProjectRepository) *entity.Project {
	t.Helper()
	p, err := entity.NewProject(uuid.New(), "Укладка плитки", 900, "USD")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestWithinTransaction_RollbackRestoresState(t *testing.T) {
	store := NewStore()
	projects := NewProjectRepository(store)
	transitions := NewTransitionRepository(store)
	p := seedProject(t, projects)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, projects.CompareAndSwapStatus(ctx, repository.StatusUpdate{
			ProjectID:       p.ID,
			ExpectedStatus:  valueobject.ProjectStatusDraft,
			ExpectedVersion: p.Version,
			NewStatus:       valueobject.ProjectStatusOpen,
			UpdatedAt:       time.Now().UTC(),
		}))
		require.NoError(t, transitions.Append(ctx, &entity.TransitionRecord{
			ID: uuid.New(), ProjectID: p.ID, FromStatus: valueobject.ProjectStatusDraft,
			ToStatus: valueobject.ProjectStatusOpen, Outcome: valueobject.OutcomeApplied,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProjectStatusDraft, stored.Status)
	assert.Equal(t, p.Version, stored.Version)

	records, err := transitions.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCompareAndSwapStatus_StaleVersion(t *testing.T) {
	store := NewStore()
	projects := NewProjectRepository(store)
	p := seedProject(t, projects)
	ctx := context.Background()

	update := repository.StatusUpdate{
		ProjectID:       p.ID,
		ExpectedStatus:  valueobject.ProjectStatusDraft,
		ExpectedVersion: p.Version,
		NewStatus:       valueobject.ProjectStatusOpen,
		UpdatedAt:       time.Now().UTC(),
	}
	require.NoError(t, projects.CompareAndSwapStatus(ctx, update))

	err := projects.CompareAndSwapStatus(ctx, update)
	assert.True(t, apperror.IsConflict(err))

	stored, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Version+1, stored.Version)
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	store := NewStore()
	projects := NewProjectRepository(store)
	p := seedProject(t, projects)

	got, err := projects.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	got.Status = valueobject.ProjectStatusCompleted

	again, err := projects.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProjectStatusDraft, again.Status)
}

func TestDisputeRepository_OneActivePerProject(t *testing.T) {
	store := NewStore()
	disputes := NewDisputeRepository(store)
	ctx := context.Background()
	projectID := uuid.New()

	first := &entity.Dispute{ID: uuid.New(), ProjectID: projectID, Status: valueobject.DisputeStatusOpen}
	require.NoError(t, disputes.Create(ctx, first))

	err := disputes.Create(ctx, &entity.Dispute{ID: uuid.New(), ProjectID: projectID, Status: valueobject.DisputeStatusOpen})
	assert.True(t, apperror.IsConflict(err))

	first.Status = valueobject.DisputeStatusClosed
	require.NoError(t, disputes.Update(ctx, first))

	active, err := disputes.FindActiveByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Nil(t, active)
	require.NoError(t, disputes.Create(ctx, &entity.Dispute{ID: uuid.New(), ProjectID: projectID, Status: valueobject.DisputeStatusOpen}))
}

func TestApplicationRepository_ResolveForAssignment(t *testing.T) {
	store := NewStore()
	apps := NewApplicationRepository(store)
	ctx := context.Background()
	projectID, chosen := uuid.New(), uuid.New()

	for _, pro := range []uuid.UUID{chosen, uuid.New(), uuid.New()} {
		require.NoError(t, apps.Create(ctx, &entity.Application{
			ID: uuid.New(), ProjectID: projectID, ProfessionalID: pro, Status: valueobject.ApplicationStatusPending,
		}))
	}

	accepted, rejected, err := apps.ResolveForAssignment(ctx, projectID, chosen, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), accepted)
	assert.Equal(t, int64(2), rejected)

	list, err := apps.ListByProject(ctx, projectID)
	require.NoError(t, err)
	for _, a := range list {
		if a.ProfessionalID == chosen {
			assert.Equal(t, valueobject.ApplicationStatusAccepted, a.Status)
		} else {
			assert.Equal(t, valueobject.ApplicationStatusRejected, a.Status)
		}
	}
}
