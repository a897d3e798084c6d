package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type archiveRow struct {
	ID         uuid.UUID      `db:"id"`
	ProjectID  uuid.UUID      `db:"project_id"`
	ArchivedBy uuid.UUID      `db:"archived_by"`
	Reason     string         `db:"reason"`
	Notes      pq.StringArray `db:"notes"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type ArchiveRepositoryAdapter struct {
	db *sqlx.DB
}

func NewArchiveRepositoryAdapter(db *sqlx.DB) *ArchiveRepositoryAdapter {
	return &ArchiveRepositoryAdapter{db: db}
}

func (r *ArchiveRepositoryAdapter) Create(ctx context.Context, a *entity.ArchiveRecord) error {
	notes := a.Notes
	if notes == nil {
		notes = []string{}
	}
	_, err := executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO archive_records (id, project_id, archived_by, reason, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.ProjectID, a.ArchivedBy, a.Reason, pq.Array(notes), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapError(err, "не удалось создать запись архива")
	}
	return nil
}

func (r *ArchiveRepositoryAdapter) FindByProject(ctx context.Context, projectID uuid.UUID) (*entity.ArchiveRecord, error) {
	var row archiveRow
	err := getOne(ctx, r.db, &row, apperror.ErrArchiveNotFound, `
		SELECT id, project_id, archived_by, reason, notes, created_at, updated_at
		FROM archive_records WHERE project_id = $1
	`, projectID)
	if err != nil {
		return nil, err
	}
	notes := []string(row.Notes)
	if notes == nil {
		notes = []string{}
	}
	return &entity.ArchiveRecord{
		ID:         row.ID,
		ProjectID:  row.ProjectID,
		ArchivedBy: row.ArchivedBy,
		Reason:     row.Reason,
		Notes:      notes,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (r *ArchiveRepositoryAdapter) AppendNote(ctx context.Context, projectID uuid.UUID, note string, at time.Time) error {
	return execAffecting(ctx, r.db, apperror.ErrArchiveNotFound, "не удалось добавить заметку архива", `
		UPDATE archive_records SET notes = array_append(notes, $2), updated_at = $3
		WHERE project_id = $1
	`, projectID, note, at)
}
