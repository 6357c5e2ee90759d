package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores transactions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new transaction record.
func (r *PostgresRepository) Create(ctx context.Context, tx Transaction) error {
	_, err := r.db.Exec(ctx, `INSERT INTO transactions
        (id, account_id, wallet_id, wallet_name, amount, kind, va_number, status, failure_code, verdict_id, balance_after, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12, $13)`,
		tx.ID, tx.AccountID, tx.WalletID, tx.WalletName, tx.Amount, tx.Kind, tx.VANumber,
		tx.Status, tx.FailureCode, tx.VerdictID, tx.BalanceAfter, tx.CreatedAt, tx.UpdatedAt)
	return err
}

// Update rewrites the mutable columns of an existing record.
func (r *PostgresRepository) Update(ctx context.Context, tx Transaction) error {
	tag, err := r.db.Exec(ctx, `UPDATE transactions
        SET status = $1, failure_code = NULLIF($2, ''), verdict_id = NULLIF($3, ''), balance_after = $4, updated_at = $5
        WHERE id = $6`,
		tx.Status, tx.FailureCode, tx.VerdictID, tx.BalanceAfter, tx.UpdatedAt, tx.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a transaction by identifier.
func (r *PostgresRepository) Get(ctx context.Context, txID string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT id, account_id, wallet_id, wallet_name, amount, kind,
        COALESCE(va_number, ''), status, COALESCE(failure_code, ''), COALESCE(verdict_id, ''), balance_after, created_at, updated_at
        FROM transactions WHERE id = $1`, txID)
	return scanTransaction(row)
}

// ListByAccount returns an account's transactions, most recent first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, wallet_id, wallet_name, amount, kind,
        COALESCE(va_number, ''), status, COALESCE(failure_code, ''), COALESCE(verdict_id, ''), balance_after, created_at, updated_at
        FROM transactions WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	var created, updated time.Time
	if err := row.Scan(&tx.ID, &tx.AccountID, &tx.WalletID, &tx.WalletName, &tx.Amount, &tx.Kind,
		&tx.VANumber, &tx.Status, &tx.FailureCode, &tx.VerdictID, &tx.BalanceAfter, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	tx.CreatedAt = created.UTC()
	tx.UpdatedAt = updated.UTC()
	return tx, nil
}
