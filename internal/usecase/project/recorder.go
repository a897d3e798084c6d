package project

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

const (
	ReasonConflict          = "conflict"
	ReasonSideEffectFailure = "side_effect_failure"
)

// Attempt описывает попытку перехода для журнала.
type Attempt struct {
	ProjectID  uuid.UUID
	FromStatus valueobject.ProjectStatus
	ToStatus   valueobject.ProjectStatus
	Actor      entity.Actor
	Outcome    valueobject.TransitionOutcome
	Reason     string
	Metadata   json.RawMessage
	At         time.Time
}

// Recorder ведёт журнал попыток переходов. Записи только добавляются.
type Recorder struct {
	transitions repository.TransitionRepository
}

func NewRecorder(transitions repository.TransitionRepository) *Recorder {
	return &Recorder{transitions: transitions}
}

// Record добавляет запись. Внутри транзакции запись фиксируется вместе с ней.
func (r *Recorder) Record(ctx context.Context, a Attempt) (*entity.TransitionRecord, error) {
	rec := &entity.TransitionRecord{
		ID:         uuid.New(),
		ProjectID:  a.ProjectID,
		FromStatus: a.FromStatus,
		ToStatus:   a.ToStatus,
		ActorID:    a.Actor.ID,
		ActorRole:  a.Actor.Role,
		Outcome:    a.Outcome,
		Reason:     a.Reason,
		Metadata:   a.Metadata,
		OccurredAt: a.At,
	}
	if err := r.transitions.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
