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

type paymentRow struct {
	ID            uuid.UUID `db:"id"`
	ProjectID     uuid.UUID `db:"project_id"`
	PayerID       uuid.UUID `db:"payer_id"`
	PayeeID       uuid.UUID `db:"payee_id"`
	Amount        float64   `db:"amount"`
	Currency      string    `db:"currency"`
	Status        string    `db:"status"`
	ExternalID    *string   `db:"external_id"`
	RedirectURL   *string   `db:"redirect_url"`
	FailureReason *string   `db:"failure_reason"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r paymentRow) toEntity() *entity.Payment {
	return &entity.Payment{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		PayerID:       r.PayerID,
		PayeeID:       r.PayeeID,
		Amount:        valueobject.Money{Amount: r.Amount, Currency: r.Currency},
		Status:        valueobject.PaymentStatus(r.Status),
		ExternalID:    r.ExternalID,
		RedirectURL:   r.RedirectURL,
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const paymentColumns = `id, project_id, payer_id, payee_id, amount, currency, status, external_id,
	redirect_url, failure_reason, created_at, updated_at`

type PaymentRepositoryAdapter struct {
	db *sqlx.DB
}

func NewPaymentRepositoryAdapter(db *sqlx.DB) *PaymentRepositoryAdapter {
	return &PaymentRepositoryAdapter{db: db}
}

func (r *PaymentRepositoryAdapter) Create(ctx context.Context, p *entity.Payment) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		p.ID, p.ProjectID, p.PayerID, p.PayeeID, p.Amount.Amount, p.Amount.Currency, string(p.Status),
		p.ExternalID, p.RedirectURL, p.FailureReason, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "не удалось создать платёж")
	}
	return nil
}

func (r *PaymentRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var row paymentRow
	if err := getOne(ctx, r.db, &row, apperror.ErrPaymentNotFound, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *PaymentRepositoryAdapter) FindByExternalID(ctx context.Context, externalID string) (*entity.Payment, error) {
	var row paymentRow
	if err := getOne(ctx, r.db, &row, apperror.ErrPaymentNotFound, `SELECT `+paymentColumns+` FROM payments WHERE external_id = $1`, externalID); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *PaymentRepositoryAdapter) FindLatestByProject(ctx context.Context, projectID uuid.UUID) (*entity.Payment, error) {
	var row paymentRow
	found, err := getOptional(ctx, r.db, &row, `
		SELECT `+paymentColumns+` FROM payments
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, projectID)
	if err != nil || !found {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *PaymentRepositoryAdapter) Update(ctx context.Context, p *entity.Payment) error {
	return execAffecting(ctx, r.db, apperror.ErrPaymentNotFound, "не удалось обновить платёж", `
		UPDATE payments
		SET status = $2, external_id = $3, redirect_url = $4, failure_reason = $5, updated_at = $6
		WHERE id = $1
	`, p.ID, string(p.Status), p.ExternalID, p.RedirectURL, p.FailureReason, p.UpdatedAt)
}
