package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

// Application: отклик исполнителя на открытый проект.
type Application struct {
	ID             uuid.UUID
	ProjectID      uuid.UUID
	ProfessionalID uuid.UUID
	CoverLetter    string
	ProposedAmount *float64
	Status         valueobject.ApplicationStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ArchiveRecord фиксирует причину архивации отдельно от журнала переходов.
type ArchiveRecord struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	ArchivedBy uuid.UUID
	Reason     string
	Notes      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
