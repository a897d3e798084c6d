package dispute_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/dispute"
)

func init() {
	logger.Discard()
}

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *entity.Dispute) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDisputeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) FindActiveByProject(ctx context.Context, projectID uuid.UUID) (*entity.Dispute, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.Dispute, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]entity.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) Update(ctx context.Context, d *entity.Dispute) error {
	return m.Called(ctx, d).Error(0)
}

func openDispute() *entity.Dispute {
	return &entity.Dispute{
		ID:           uuid.New(),
		ProjectID:    uuid.New(),
		InitiatorID:  uuid.New(),
		RespondentID: uuid.New(),
		Type:         valueobject.DisputeTypeQuality,
		Title:        "Трещины в стяжке",
		Status:       valueobject.DisputeStatusOpen,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestChangeStatus_AdminWalksStateMachine(t *testing.T) {
	repo := new(mockDisputeRepo)
	uc := dispute.NewChangeStatusUseCase(repo)
	ctx := context.Background()
	admin := entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleAdmin}

	d := openDispute()
	repo.On("FindByID", ctx, d.ID).Return(d, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*entity.Dispute")).Return(nil)

	got, err := uc.Execute(ctx, d.ID, admin, valueobject.DisputeStatusInReview, "")
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusInReview, got.Status)

	_, err = uc.Execute(ctx, d.ID, admin, valueobject.DisputeStatusResolved, "")
	assert.True(t, apperror.IsPreconditionFailed(err), "решение обязательно")

	got, err = uc.Execute(ctx, d.ID, admin, valueobject.DisputeStatusResolved, "Исполнитель переделывает стяжку")
	require.NoError(t, err)
	require.NotNil(t, got.Resolution)
	assert.Equal(t, "Исполнитель переделывает стяжку", *got.Resolution)
	assert.NotNil(t, got.ResolvedAt)
	assert.False(t, got.IsActive())

	repo.AssertNumberOfCalls(t, "Update", 2)
}

func TestChangeStatus_InvalidEdge(t *testing.T) {
	repo := new(mockDisputeRepo)
	uc := dispute.NewChangeStatusUseCase(repo)
	ctx := context.Background()

	d := openDispute()
	repo.On("FindByID", ctx, d.ID).Return(d, nil)

	_, err := uc.Execute(ctx, d.ID, entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleAdmin}, valueobject.DisputeStatusEscalated, "")
	assert.True(t, apperror.IsPreconditionFailed(err))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestChangeStatus_OnlyAdmin(t *testing.T) {
	repo := new(mockDisputeRepo)
	uc := dispute.NewChangeStatusUseCase(repo)

	_, err := uc.Execute(context.Background(), uuid.New(), entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleClient}, valueobject.DisputeStatusClosed, "")
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestChangeStatus_NotFound(t *testing.T) {
	repo := new(mockDisputeRepo)
	uc := dispute.NewChangeStatusUseCase(repo)
	ctx := context.Background()
	id := uuid.New()
	repo.On("FindByID", ctx, id).Return(nil, apperror.ErrDisputeNotFound)

	_, err := uc.Execute(ctx, id, entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleAdmin}, valueobject.DisputeStatusClosed, "")
	assert.True(t, apperror.IsNotFound(err))
}
