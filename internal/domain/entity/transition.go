package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

// TransitionRecord: неизменяемая запись журнала попыток смены статуса.
type TransitionRecord struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	FromStatus valueobject.ProjectStatus
	ToStatus   valueobject.ProjectStatus
	ActorID    uuid.UUID
	ActorRole  valueobject.ActorRole
	Outcome    valueobject.TransitionOutcome
	Reason     string
	Metadata   json.RawMessage
	OccurredAt time.Time
}

func (r TransitionRecord) IsApplied() bool {
	return r.Outcome == valueobject.OutcomeApplied
}
