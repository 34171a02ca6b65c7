package engine

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aria-labs/ariaquery/internal/database"
)

// testNow pins the clock: Friday 20 June 2025, 10:00 UTC.
var testNow = time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRegistry(t *testing.T, db *sql.DB) *Registry {
	t.Helper()
	return NewRegistry(db, DefaultVocabulary(), time.Minute, zap.NewNop())
}

func newTestExtractor(t *testing.T, db *sql.DB) *Extractor {
	t.Helper()
	return NewExtractor(newTestRegistry(t, db), DefaultVocabulary(), fixedNow)
}

func insertTxn(t *testing.T, db *sql.DB, id, merchant, category string, amount float64, method string, ts int64) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
	INSERT INTO transactions(id, merchant, category, amount, currency, payment_method, timestamp, source_ref)
	VALUES(?, ?, ?, ?, 'INR', ?, ?, 'test')`, id, merchant, category, amount, method, ts)
	require.NoError(t, err)
}

func insertSpendLog(t *testing.T, db *sql.DB, id, category string, amount float64, description string, ts int64) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
	INSERT INTO spend_log(id, category, amount_raw, description, occurred_at, source_ref)
	VALUES(?, ?, ?, ?, ?, 'test')`, id, category, amount, description, ts)
	require.NoError(t, err)
}
