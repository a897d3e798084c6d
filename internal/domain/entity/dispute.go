package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type Dispute struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	InitiatorID  uuid.UUID
	RespondentID uuid.UUID
	Type         valueobject.DisputeType
	Title        string
	Description  string
	Status       valueobject.DisputeStatus
	Resolution   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
}

func (d *Dispute) IsActive() bool {
	return d.Status.IsActive()
}

// ChangeStatus переводит спор по его собственной машине состояний.
func (d *Dispute) ChangeStatus(newStatus valueobject.DisputeStatus, resolution string, at time.Time) error {
	if !d.Status.CanTransitionTo(newStatus) {
		return apperror.New(apperror.ErrCodePreconditionFailed, "недопустимый переход статуса спора: "+string(d.Status)+" → "+string(newStatus))
	}

	resolution = strings.TrimSpace(resolution)
	if newStatus == valueobject.DisputeStatusResolved {
		if resolution == "" {
			return apperror.New(apperror.ErrCodePreconditionFailed, "для урегулирования спора требуется решение")
		}
		d.Resolution = &resolution
		d.ResolvedAt = &at
	}

	d.Status = newStatus
	d.UpdatedAt = at
	return nil
}
