package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type projectRow struct {
	ID                     uuid.UUID  `db:"id"`
	ClientID               uuid.UUID  `db:"client_id"`
	AssignedProfessionalID *uuid.UUID `db:"assigned_professional_id"`
	Title                  string     `db:"title"`
	BudgetAmount           float64    `db:"budget_amount"`
	BudgetCurrency         string     `db:"budget_currency"`
	Status                 string     `db:"status"`
	PaymentStatus          string     `db:"payment_status"`
	Version                int64      `db:"version"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

func (r projectRow) toEntity() *entity.Project {
	return &entity.Project{
		ID:                     r.ID,
		ClientID:               r.ClientID,
		AssignedProfessionalID: r.AssignedProfessionalID,
		Title:                  r.Title,
		Budget:                 valueobject.Money{Amount: r.BudgetAmount, Currency: r.BudgetCurrency},
		Status:                 valueobject.ProjectStatus(r.Status),
		PaymentStatus:          valueobject.ProjectPaymentStatus(r.PaymentStatus),
		Version:                r.Version,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

const projectColumns = `id, client_id, assigned_professional_id, title, budget_amount, budget_currency,
	status, payment_status, version, created_at, updated_at`

type ProjectRepositoryAdapter struct {
	db *sqlx.DB
}

func NewProjectRepositoryAdapter(db *sqlx.DB) *ProjectRepositoryAdapter {
	return &ProjectRepositoryAdapter{db: db}
}

func (r *ProjectRepositoryAdapter) Create(ctx context.Context, p *entity.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		p.ClientID,
		p.AssignedProfessionalID,
		p.Title,
		p.Budget.Amount,
		p.Budget.Currency,
		string(p.Status),
		string(p.PaymentStatus),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "не удалось создать проект")
	}
	return nil
}

func (r *ProjectRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	var row projectRow
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if err := getOne(ctx, r.db, &row, apperror.ErrProjectNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// CompareAndSwapStatus меняет статус, только если статус и версия не изменились с момента чтения.
func (r *ProjectRepositoryAdapter) CompareAndSwapStatus(ctx context.Context, u repository.StatusUpdate) error {
	query := `
		UPDATE projects
		SET status = $4, version = version + 1, updated_at = $5
		WHERE id = $1 AND status = $2 AND version = $3
	`
	return execAffecting(ctx, r.db, apperror.ErrStatusConflict, "не удалось обновить статус проекта", query,
		u.ProjectID, string(u.ExpectedStatus), u.ExpectedVersion, string(u.NewStatus), u.UpdatedAt)
}

func (r *ProjectRepositoryAdapter) SetAssignedProfessional(ctx context.Context, projectID, professionalID uuid.UUID, at time.Time) error {
	query := `
		UPDATE projects
		SET assigned_professional_id = $2, version = version + 1, updated_at = $3
		WHERE id = $1
	`
	return execAffecting(ctx, r.db, apperror.ErrProjectNotFound, "не удалось назначить исполнителя", query,
		projectID, professionalID, at)
}

func (r *ProjectRepositoryAdapter) UpdatePaymentStatus(ctx context.Context, projectID uuid.UUID, status valueobject.ProjectPaymentStatus, at time.Time) error {
	query := `
		UPDATE projects
		SET payment_status = $2, version = version + 1, updated_at = $3
		WHERE id = $1
	`
	return execAffecting(ctx, r.db, apperror.ErrProjectNotFound, "не удалось обновить статус оплаты", query,
		projectID, string(status), at)
}

// List возвращает проекты по времени создания.
func (r *ProjectRepositoryAdapter) List(ctx context.Context) ([]*entity.Project, error) {
	var rows []projectRow
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at ASC`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список проектов")
	}
	projects := make([]*entity.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toEntity())
	}
	return projects, nil
}
