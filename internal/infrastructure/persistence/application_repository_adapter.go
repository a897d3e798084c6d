package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type applicationRow struct {
	ID             uuid.UUID `db:"id"`
	ProjectID      uuid.UUID `db:"project_id"`
	ProfessionalID uuid.UUID `db:"professional_id"`
	CoverLetter    string    `db:"cover_letter"`
	ProposedAmount *float64  `db:"proposed_amount"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r applicationRow) toEntity() *entity.Application {
	return &entity.Application{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		ProfessionalID: r.ProfessionalID,
		CoverLetter:    r.CoverLetter,
		ProposedAmount: r.ProposedAmount,
		Status:         valueobject.ApplicationStatus(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const applicationColumns = `id, project_id, professional_id, cover_letter, proposed_amount, status, created_at, updated_at`

type ApplicationRepositoryAdapter struct {
	db *sqlx.DB
}

func NewApplicationRepositoryAdapter(db *sqlx.DB) *ApplicationRepositoryAdapter {
	return &ApplicationRepositoryAdapter{db: db}
}

func (r *ApplicationRepositoryAdapter) Create(ctx context.Context, a *entity.Application) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.ProjectID, a.ProfessionalID, a.CoverLetter, a.ProposedAmount, string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapError(err, "заявка на этот проект уже подана")
	}
	return nil
}

func (r *ApplicationRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var row applicationRow
	if err := getOne(ctx, r.db, &row, apperror.ErrApplicationNotFound, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ApplicationRepositoryAdapter) ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.Application, error) {
	var rows []applicationRow
	err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows,
		`SELECT `+applicationColumns+` FROM applications WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заявки")
	}
	apps := make([]entity.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, *row.toEntity())
	}
	return apps, nil
}

func (r *ApplicationRepositoryAdapter) Withdraw(ctx context.Context, id uuid.UUID, at time.Time) error {
	return execAffecting(ctx, r.db,
		apperror.New(apperror.ErrCodePreconditionFailed, "отозвать можно только ожидающую заявку"),
		"не удалось отозвать заявку", `
		UPDATE applications SET status = 'withdrawn', updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`, id, at)
}

// ResolveForAssignment одним запросом принимает заявку выбранного исполнителя
// и отклоняет остальные ожидающие.
func (r *ApplicationRepositoryAdapter) ResolveForAssignment(ctx context.Context, projectID, professionalID uuid.UUID, at time.Time) (int64, int64, error) {
	var statuses pq.StringArray
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &statuses, `
		WITH resolved AS (
			UPDATE applications
			SET status = CASE WHEN professional_id = $2 THEN 'accepted' ELSE 'rejected' END,
			    updated_at = $3
			WHERE project_id = $1 AND status = 'pending'
			RETURNING status
		)
		SELECT COALESCE(array_agg(status), '{}') FROM resolved
	`, projectID, professionalID, at)
	if err != nil {
		return 0, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обработать заявки проекта")
	}

	var accepted, rejected int64
	for _, s := range statuses {
		if s == string(valueobject.ApplicationStatusAccepted) {
			accepted++
		} else {
			rejected++
		}
	}
	return accepted, rejected, nil
}
