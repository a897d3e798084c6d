package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type txKey struct{}

// Transactor открывает транзакцию и кладёт её в контекст. Адаптеры, получившие
// такой контекст, выполняют запросы в ней.
type Transactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTransaction выполняет fn в транзакции; вложенный вызов переиспользует внешнюю.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось начать транзакцию")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "не удалось зафиксировать транзакцию")
	}
	return nil
}

// executor возвращает транзакцию из контекста или пул соединений.
func executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
)

// mapError приводит ошибки драйвера к таксономии приложения.
func mapError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqSerializationFailure:
			return apperror.Wrap(err, apperror.ErrCodeConflict, msg)
		}
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, msg)
}

// getOne читает одну строку; отсутствие строки возвращается как notFound.
func getOne(ctx context.Context, db *sqlx.DB, dest interface{}, notFound error, query string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, executor(ctx, db), dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка чтения из базы данных")
	}
	return nil
}

// getOptional читает одну строку; отсутствие строки не ошибка.
func getOptional(ctx context.Context, db *sqlx.DB, dest interface{}, query string, args ...interface{}) (bool, error) {
	if err := sqlx.GetContext(ctx, executor(ctx, db), dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка чтения из базы данных")
	}
	return true, nil
}

// execAffecting выполняет запрос и возвращает notFound, если строк не затронуто.
func execAffecting(ctx context.Context, db *sqlx.DB, notFound error, msg, query string, args ...interface{}) error {
	res, err := executor(ctx, db).ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, msg)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, msg)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
