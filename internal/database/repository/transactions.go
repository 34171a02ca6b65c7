package repository

import (
	"context"
	"database/sql"
)

// TransactionRepo handles transaction writes and lookups.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// InsertIdempotent inserts a transaction, ignoring rows whose ID already
// exists. It reports whether the row was actually written.
func (r *TransactionRepo) InsertIdempotent(ctx context.Context, t Transaction) (bool, error) {
	if t.Currency == "" {
		t.Currency = "INR"
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO transactions(id, merchant, category, amount, currency, payment_method, timestamp, source_ref)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Merchant, t.Category, t.Amount, t.Currency, t.PaymentMethod, t.Timestamp, t.SourceRef)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns a transaction by ID, or nil when it does not exist.
func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, merchant, category, amount, currency, payment_method, timestamp, source_ref FROM transactions WHERE id = ?`, id)
	var t Transaction
	var category, method, source sql.NullString
	if err := row.Scan(&t.ID, &t.Merchant, &category, &t.Amount, &t.Currency, &method, &t.Timestamp, &source); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t.Category = category.String
	t.PaymentMethod = method.String
	t.SourceRef = source.String
	return &t, nil
}
