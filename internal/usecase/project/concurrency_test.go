package project_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
)

// barrierProjects задерживает первые n чтений, пока их не наберётся n.
// Так оба запроса видят статус open до того, как кто-то из них его изменит.
type barrierProjects struct {
	repository.ProjectRepository
	calls   atomic.Int32
	n       int32
	barrier sync.WaitGroup
}

func newBarrierProjects(inner repository.ProjectRepository, n int) *barrierProjects {
	b := &barrierProjects{ProjectRepository: inner, n: int32(n)}
	b.barrier.Add(n)
	return b
}

func (b *barrierProjects) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	p, err := b.ProjectRepository.FindByID(ctx, id)
	if b.calls.Add(1) <= b.n {
		b.barrier.Done()
		b.barrier.Wait()
	}
	return p, err
}

func TestCoordinator_ConcurrentAssignment(t *testing.T) {
	defer goleak.VerifyNone(t)

	var barrier *barrierProjects
	env := newEnv(t, nil)
	p := env.createProject(t)
	env.mustTransition(t, p.ID, valueobject.ProjectStatusOpen, env.client, nil)

	env = envWithBarrier(t, env, func(inner repository.ProjectRepository) repository.ProjectRepository {
		barrier = newBarrierProjects(inner, 2)
		return barrier
	})

	candidates := []uuid.UUID{uuid.New(), uuid.New()}
	results := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate uuid.UUID) {
			defer wg.Done()
			_, results[i] = env.coordinator.RequestTransition(context.Background(), project.Request{
				ProjectID: p.ID,
				Target:    valueobject.ProjectStatusAssigned,
				Actor:     env.client,
				Payload:   lifecycle.AssignPayload{ProfessionalID: candidate},
			})
		}(i, candidate)
	}
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("неожиданная ошибка: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicts)

	final := env.reload(t, p.ID)
	assert.Equal(t, valueobject.ProjectStatusAssigned, final.Status)
	require.NotNil(t, final.AssignedProfessionalID)
	assert.Contains(t, candidates, *final.AssignedProfessionalID)

	records := env.history(t, p.ID)
	var applied, rejected int
	for _, rec := range records {
		if rec.ToStatus != valueobject.ProjectStatusAssigned {
			continue
		}
		if rec.IsApplied() {
			applied++
		} else {
			rejected++
			assert.Equal(t, project.ReasonConflict, rec.Reason)
		}
	}
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, rejected)

	_, err := env.coordinator.VerifyHistory(context.Background(), p.ID)
	assert.NoError(t, err)
}

// hookedDisputes вызывает hook один раз, после первого поиска активного спора.
type hookedDisputes struct {
	repository.DisputeRepository
	once sync.Once
	hook func()
}

func (h *hookedDisputes) FindActiveByProject(ctx context.Context, projectID uuid.UUID) (*entity.Dispute, error) {
	d, err := h.DisputeRepository.FindActiveByProject(ctx, projectID)
	h.once.Do(h.hook)
	return d, err
}

func TestCoordinator_DisputeOpenedAfterCompletionChecked(t *testing.T) {
	env := newEnv(t, nil)
	p := env.createProject(t)
	env.advanceTo(t, p.ID, valueobject.ProjectStatusWorkApproved)

	// спор открывается между проверкой фактов и записью статуса completed
	completing := envWithDisputes(t, env, func(inner repository.DisputeRepository) repository.DisputeRepository {
		return &hookedDisputes{
			DisputeRepository: inner,
			hook: func() {
				_, err := env.coordinator.OpenDispute(context.Background(), p.ID, env.professional, lifecycle.DisputePayload{
					Type:         valueobject.DisputeTypePayment,
					Title:        "Оплата",
					Description:  "Заказчик тянет с оплатой",
					RespondentID: env.client.ID,
				})
				require.NoError(t, err)
			},
		}
	})

	_, err := completing.transition(p.ID, valueobject.ProjectStatusCompleted, env.client, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsPreconditionFailed(err))

	assert.Equal(t, valueobject.ProjectStatusWorkApproved, env.reload(t, p.ID).Status)
	dispute, err := env.disputes.FindActiveByProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.NotNil(t, dispute)
	env.gateway.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)

	_, err = env.coordinator.VerifyHistory(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestCoordinator_ConcurrentCompletionAndDispute(t *testing.T) {
	defer goleak.VerifyNone(t)

	env := newEnv(t, nil)
	env.gateway.On("InitiatePayment", mock.Anything, mock.Anything).
		Return(&project.PaymentSession{ExternalID: "pay_race"}, nil).Maybe()
	p := env.createProject(t)
	env.advanceTo(t, p.ID, valueobject.ProjectStatusWorkApproved)

	env = envWithBarrier(t, env, func(inner repository.ProjectRepository) repository.ProjectRepository {
		return newBarrierProjects(inner, 2)
	})

	var (
		wg          sync.WaitGroup
		completeErr error
		disputeErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, completeErr = env.transition(p.ID, valueobject.ProjectStatusCompleted, env.client, nil)
	}()
	go func() {
		defer wg.Done()
		_, disputeErr = env.coordinator.OpenDispute(context.Background(), p.ID, env.professional, lifecycle.DisputePayload{
			Type:         valueobject.DisputeTypePayment,
			Title:        "Оплата",
			Description:  "Заказчик тянет с оплатой",
			RespondentID: env.client.ID,
		})
	}()
	wg.Wait()

	final := env.reload(t, p.ID)
	dispute, err := env.disputes.FindActiveByProject(context.Background(), p.ID)
	require.NoError(t, err)

	if completeErr == nil {
		assert.Equal(t, valueobject.ProjectStatusCompleted, final.Status)
		assert.Nil(t, dispute)
		assert.True(t, apperror.IsConflict(disputeErr), "спор: %v", disputeErr)
	} else {
		assert.True(t, apperror.IsPreconditionFailed(completeErr), "завершение: %v", completeErr)
		require.NoError(t, disputeErr)
		assert.Equal(t, valueobject.ProjectStatusWorkApproved, final.Status)
		assert.NotNil(t, dispute)
	}

	_, err = env.coordinator.VerifyHistory(context.Background(), p.ID)
	assert.NoError(t, err)
}

// envWithDisputes пересобирает координатор над тем же хранилищем с обёрнутым репозиторием споров.
func envWithDisputes(t *testing.T, base *testEnv, wrap func(repository.DisputeRepository) repository.DisputeRepository) *testEnv {
	t.Helper()
	env := *base
	disputes := wrap(base.disputes)
	dispatcher := project.NewDispatcher(env.projects, env.payments, disputes, env.archives, env.applications, env.gateway)
	env.coordinator = project.NewCoordinator(
		env.store,
		env.projects,
		env.payments,
		disputes,
		project.NewRecorder(env.transitions),
		dispatcher,
		project.WithNotifier(env.notifier),
	)
	return &env
}

// envWithBarrier пересобирает координатор над тем же хранилищем с обёрнутым репозиторием проектов.
func envWithBarrier(t *testing.T, base *testEnv, wrap func(repository.ProjectRepository) repository.ProjectRepository) *testEnv {
	t.Helper()
	env := *base
	env.projects = wrap(base.projects)
	dispatcher := project.NewDispatcher(env.projects, env.payments, env.disputes, env.archives, env.applications, env.gateway)
	env.coordinator = project.NewCoordinator(
		env.store,
		env.projects,
		env.payments,
		env.disputes,
		project.NewRecorder(env.transitions),
		dispatcher,
		project.WithNotifier(env.notifier),
	)
	return &env
}
