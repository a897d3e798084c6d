package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type transitionRow struct {
	ID         uuid.UUID `db:"id"`
	ProjectID  uuid.UUID `db:"project_id"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ActorID    uuid.UUID `db:"actor_id"`
	ActorRole  string    `db:"actor_role"`
	Outcome    string    `db:"outcome"`
	Reason     string    `db:"reason"`
	Metadata   []byte    `db:"metadata"`
	OccurredAt time.Time `db:"occurred_at"`
}

// TransitionRepositoryAdapter пишет в project_transitions. Таблица только на добавление:
// UPDATE и DELETE для неё не выполняются.
type TransitionRepositoryAdapter struct {
	db *sqlx.DB
}

func NewTransitionRepositoryAdapter(db *sqlx.DB) *TransitionRepositoryAdapter {
	return &TransitionRepositoryAdapter{db: db}
}

func (r *TransitionRepositoryAdapter) Append(ctx context.Context, rec *entity.TransitionRecord) error {
	var metadata interface{}
	if len(rec.Metadata) > 0 {
		metadata = []byte(rec.Metadata)
	}

	_, err := executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO project_transitions
			(id, project_id, from_status, to_status, actor_id, actor_role, outcome, reason, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rec.ID,
		rec.ProjectID,
		string(rec.FromStatus),
		string(rec.ToStatus),
		rec.ActorID,
		string(rec.ActorRole),
		string(rec.Outcome),
		rec.Reason,
		metadata,
		rec.OccurredAt,
	)
	if err != nil {
		return mapError(err, "не удалось записать переход в журнал")
	}
	return nil
}

func (r *TransitionRepositoryAdapter) ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.TransitionRecord, error) {
	var rows []transitionRow
	err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, `
		SELECT id, project_id, from_status, to_status, actor_id, actor_role, outcome, reason, metadata, occurred_at
		FROM project_transitions
		WHERE project_id = $1
		ORDER BY occurred_at ASC, seq ASC
	`, projectID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал переходов")
	}

	records := make([]entity.TransitionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, entity.TransitionRecord{
			ID:         row.ID,
			ProjectID:  row.ProjectID,
			FromStatus: valueobject.ProjectStatus(row.FromStatus),
			ToStatus:   valueobject.ProjectStatus(row.ToStatus),
			ActorID:    row.ActorID,
			ActorRole:  valueobject.ActorRole(row.ActorRole),
			Outcome:    valueobject.TransitionOutcome(row.Outcome),
			Reason:     row.Reason,
			Metadata:   row.Metadata,
			OccurredAt: row.OccurredAt,
		})
	}
	return records, nil
}
