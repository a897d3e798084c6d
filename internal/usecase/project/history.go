package project

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// History возвращает журнал переходов проекта в порядке записи.
func (c *Coordinator) History(ctx context.Context, projectID uuid.UUID, actor entity.Actor) ([]entity.TransitionRecord, error) {
	project, err := c.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(project, actor); err != nil {
		return nil, err
	}
	return c.recorder.transitions.ListByProject(ctx, projectID)
}

// VerifyHistory проверяет, что применённые записи журнала воспроизводят текущий статус.
func (c *Coordinator) VerifyHistory(ctx context.Context, projectID uuid.UUID) (lifecycle.ReplayResult, error) {
	project, err := c.projects.FindByID(ctx, projectID)
	if err != nil {
		return lifecycle.ReplayResult{}, err
	}
	records, err := c.recorder.transitions.ListByProject(ctx, projectID)
	if err != nil {
		return lifecycle.ReplayResult{}, err
	}

	result, err := lifecycle.Replay(records)
	if err != nil {
		return result, apperror.Wrap(err, apperror.ErrCodeInternal, "журнал переходов повреждён")
	}
	if err := lifecycle.Verify(project, records); err != nil {
		return result, apperror.Wrap(err, apperror.ErrCodeInternal, "журнал переходов не соответствует статусу проекта")
	}
	return result, nil
}
