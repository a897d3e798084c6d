package db

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-backend/migrations"
)

func TestRunMigrations_SkipsApplied(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	conn := sqlx.NewDb(raw, "postgres")

	fsys := fstest.MapFS{
		"0002_b.sql": {Data: []byte("CREATE TABLE b (id INT);")},
		"0001_a.sql": {Data: []byte("CREATE TABLE a (id INT);")},
		"README.md":  {Data: []byte("не миграция")},
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schema_migrations`).WithArgs("0001_a.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schema_migrations`).WithArgs("0002_b.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("0002_b.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := RunMigrations(context.Background(), conn, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_b.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fsGlob()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_projects.sql", "0002_collaborators.sql"}, names)
}

func fsGlob() ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
