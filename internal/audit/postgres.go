package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder stores audit records in PostgreSQL.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder builds a recorder backed by PostgreSQL.
func NewPostgresRecorder(db *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record inserts the record. A repeat delivery of the same transaction id is
// a no-op, which keeps the recorder idempotent.
func (r *PostgresRecorder) Record(ctx context.Context, rec Record) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO audit_records (transaction_id, account_id, wallet_id, amount, kind, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (transaction_id) DO NOTHING`,
		rec.TransactionID, rec.AccountID, rec.WalletID, rec.Amount, rec.Kind, rec.Status, created)
	return err
}

// List returns stored records, most recent first.
func (r *PostgresRecorder) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT transaction_id, account_id, wallet_id, amount, kind, status, created_at
        FROM audit_records ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var created time.Time
		if err := rows.Scan(&rec.TransactionID, &rec.AccountID, &rec.WalletID, &rec.Amount, &rec.Kind, &rec.Status, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = created.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
