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

type disputeRow struct {
	ID           uuid.UUID  `db:"id"`
	ProjectID    uuid.UUID  `db:"project_id"`
	InitiatorID  uuid.UUID  `db:"initiator_id"`
	RespondentID uuid.UUID  `db:"respondent_id"`
	Type         string     `db:"type"`
	Title        string     `db:"title"`
	Description  string     `db:"description"`
	Status       string     `db:"status"`
	Resolution   *string    `db:"resolution"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	ResolvedAt   *time.Time `db:"resolved_at"`
}

func (r disputeRow) toEntity() *entity.Dispute {
	return &entity.Dispute{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		InitiatorID:  r.InitiatorID,
		RespondentID: r.RespondentID,
		Type:         valueobject.DisputeType(r.Type),
		Title:        r.Title,
		Description:  r.Description,
		Status:       valueobject.DisputeStatus(r.Status),
		Resolution:   r.Resolution,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		ResolvedAt:   r.ResolvedAt,
	}
}

const disputeColumns = `id, project_id, initiator_id, respondent_id, type, title, description, status,
	resolution, created_at, updated_at, resolved_at`

// activeDisputeStatuses совпадает с условием частичного уникального индекса disputes_one_active.
const activeDisputeStatuses = `('open', 'in_review', 'escalated')`

type DisputeRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDisputeRepositoryAdapter(db *sqlx.DB) *DisputeRepositoryAdapter {
	return &DisputeRepositoryAdapter{db: db}
}

func (r *DisputeRepositoryAdapter) Create(ctx context.Context, d *entity.Dispute) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO disputes (`+disputeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		d.ID, d.ProjectID, d.InitiatorID, d.RespondentID, string(d.Type), d.Title, d.Description,
		string(d.Status), d.Resolution, d.CreatedAt, d.UpdatedAt, d.ResolvedAt,
	)
	if err != nil {
		return mapError(err, "по проекту уже открыт спор или не удалось его создать")
	}
	return nil
}

func (r *DisputeRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	var row disputeRow
	if err := getOne(ctx, r.db, &row, apperror.ErrDisputeNotFound, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *DisputeRepositoryAdapter) FindActiveByProject(ctx context.Context, projectID uuid.UUID) (*entity.Dispute, error) {
	var row disputeRow
	found, err := getOptional(ctx, r.db, &row, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE project_id = $1 AND status IN `+activeDisputeStatuses+`
		LIMIT 1
	`, projectID)
	if err != nil || !found {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *DisputeRepositoryAdapter) ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.Dispute, error) {
	var rows []disputeRow
	err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows,
		`SELECT `+disputeColumns+` FROM disputes WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить споры проекта")
	}
	disputes := make([]entity.Dispute, 0, len(rows))
	for _, row := range rows {
		disputes = append(disputes, *row.toEntity())
	}
	return disputes, nil
}

func (r *DisputeRepositoryAdapter) Update(ctx context.Context, d *entity.Dispute) error {
	return execAffecting(ctx, r.db, apperror.ErrDisputeNotFound, "не удалось обновить спор", `
		UPDATE disputes
		SET status = $2, resolution = $3, resolved_at = $4, updated_at = $5
		WHERE id = $1
	`, d.ID, string(d.Status), d.Resolution, d.ResolvedAt, d.UpdatedAt)
}
