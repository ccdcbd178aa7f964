package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"queryly/database/migrations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"m/000001_a.up.sql":   {Data: []byte("CREATE TABLE a (id NUMBER);\n")},
		"m/000001_a.down.sql": {Data: []byte("DROP TABLE a")},
		"m/000002_b.up.sql":   {Data: []byte("CREATE INDEX b ON a (id)")},
		"m/000002_b.down.sql": {Data: []byte("DROP INDEX b")},
		"m/README.md":         {Data: []byte("ignored")},
	}
}

func TestRunOracleMigrations_Up(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id NUMBER)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX b ON a (id)")).
		WillReturnError(errors.New("ORA-00955: name is already used by an existing object"))

	require.NoError(t, RunOracleMigrations(context.Background(), db, testMigrations(), "m", "up"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOracleMigrations_DownRunsInReverse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DROP INDEX b")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE a")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunOracleMigrations(context.Background(), db, testMigrations(), "m", "down"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOracleMigrations_StopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE a").WillReturnError(errors.New("ORA-01031: insufficient privileges"))

	err = RunOracleMigrations(context.Background(), db, testMigrations(), "m", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000001_a.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOracleMigrations_BadDirection(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, RunOracleMigrations(context.Background(), db, testMigrations(), "m", "sideways"))
}

func TestEmbeddedOracleMigrations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE chat_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX idx_chat_history_created_at").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunOracleMigrations(context.Background(), db, migrations.Oracle, migrations.OracleDir, "up"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
