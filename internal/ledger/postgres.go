package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists wallets and mutation log entries in PostgreSQL.
// Atomicity per wallet is guaranteed by a row lock on the wallet combined
// with a version-guarded update, so a lost update is impossible even if a
// competing writer slips past the lock.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateWallet inserts a new active wallet with a zero balance.
func (s *PostgresStore) CreateWallet(ctx context.Context, accountID, name string) (Wallet, error) {
	now := time.Now().UTC()
	w := Wallet{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      name,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(ctx, `INSERT INTO wallets (id, account_id, name, balance, status, version, created_at, updated_at)
        VALUES ($1, $2, $3, 0, $4, 0, $5, $5)`, w.ID, w.AccountID, w.Name, w.Status, now)
	if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// GetWallet fetches a wallet by identifier.
func (s *PostgresStore) GetWallet(ctx context.Context, walletID string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id, account_id, name, balance, status, version, created_at, updated_at
        FROM wallets WHERE id = $1`, walletID)
	return scanWallet(row)
}

// WalletsByAccount lists an account's wallets, most recent first.
func (s *PostgresStore) WalletsByAccount(ctx context.Context, accountID string) ([]Wallet, error) {
	rows, err := s.db.Query(ctx, `SELECT id, account_id, name, balance, status, version, created_at, updated_at
        FROM wallets WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Credit applies a balance increase and appends the matching log entry.
func (s *PostgresStore) Credit(ctx context.Context, walletID string, amount int64, reference, reason string) (Entry, error) {
	return s.mutate(ctx, walletID, DirectionCredit, amount, reference, reason)
}

// Debit applies a balance decrease and appends the matching log entry.
func (s *PostgresStore) Debit(ctx context.Context, walletID string, amount int64, reference, reason string) (Entry, error) {
	return s.mutate(ctx, walletID, DirectionDebit, amount, reference, reason)
}

func (s *PostgresStore) mutate(ctx context.Context, walletID, direction string, amount int64, reference, reason string) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT id, account_id, name, balance, status, version, created_at, updated_at
        FROM wallets WHERE id = $1 FOR UPDATE`, walletID)
	w, err := scanWallet(row)
	if err != nil {
		return Entry{}, err
	}

	if reference != "" {
		var prior Entry
		var created time.Time
		err := tx.QueryRow(ctx, `SELECT id, reference, direction, amount, balance_before, balance_after, reason, created_at
            FROM mutation_log WHERE wallet_id = $1 AND reference = $2`, walletID, reference).
			Scan(&prior.ID, &prior.Reference, &prior.Direction, &prior.Amount, &prior.BalanceBefore, &prior.BalanceAfter, &prior.Reason, &created)
		if err == nil {
			prior.WalletID = walletID
			prior.CreatedAt = created.UTC()
			return prior, ErrDuplicateReference
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, err
		}
	}

	if w.Status == StatusFrozen {
		return Entry{}, ErrWalletFrozen
	}

	before := w.Balance
	after := before
	switch direction {
	case DirectionCredit:
		after = before + amount
	case DirectionDebit:
		if before < amount {
			return Entry{}, ErrInsufficientBalance
		}
		after = before - amount
	}

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1, version = version + 1, updated_at = $2
        WHERE id = $3 AND version = $4`, after, now, walletID, w.Version)
	if err != nil {
		return Entry{}, err
	}
	if tag.RowsAffected() != 1 {
		// Version moved underneath the row lock. Should be unreachable; treat
		// it as an integrity fault rather than retrying silently.
		return Entry{}, ErrOutOfBalance
	}

	entry := Entry{
		ID:            uuid.NewString(),
		WalletID:      walletID,
		Reference:     reference,
		Direction:     direction,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reason:        reason,
		CreatedAt:     now,
	}
	if _, err := tx.Exec(ctx, `INSERT INTO mutation_log (id, wallet_id, reference, direction, amount, balance_before, balance_after, reason, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.WalletID, entry.Reference, entry.Direction, entry.Amount, entry.BalanceBefore, entry.BalanceAfter, entry.Reason, entry.CreatedAt); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Freeze marks the wallet frozen. Freezing a frozen wallet is a no-op.
func (s *PostgresStore) Freeze(ctx context.Context, walletID string) error {
	return s.setStatus(ctx, walletID, StatusFrozen)
}

// Unfreeze reactivates the wallet. Unfreezing an active wallet is a no-op.
func (s *PostgresStore) Unfreeze(ctx context.Context, walletID string) error {
	return s.setStatus(ctx, walletID, StatusActive)
}

func (s *PostgresStore) setStatus(ctx context.Context, walletID, status string) error {
	tag, err := s.db.Exec(ctx, `UPDATE wallets SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), walletID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// Entries returns the wallet's mutation log, most recent first.
func (s *PostgresStore) Entries(ctx context.Context, walletID string) ([]Entry, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT id, COALESCE(reference, ''), direction, amount, balance_before, balance_after, reason, created_at
        FROM mutation_log WHERE wallet_id = $1 ORDER BY created_at DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created time.Time
		if err := rows.Scan(&e.ID, &e.Reference, &e.Direction, &e.Amount, &e.BalanceBefore, &e.BalanceAfter, &e.Reason, &created); err != nil {
			return nil, err
		}
		e.WalletID = walletID
		e.CreatedAt = created.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteWallet removes a wallet that holds no funds.
func (s *PostgresStore) DeleteWallet(ctx context.Context, walletID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1 FOR UPDATE`, walletID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	if balance > 0 {
		return ErrWalletNotEmpty
	}
	if _, err := tx.Exec(ctx, `DELETE FROM mutation_log WHERE wallet_id = $1`, walletID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, walletID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Reconcile recomputes the balance from the mutation log and compares it with
// the stored balance. A mismatch is the fatal ErrOutOfBalance fault.
func (s *PostgresStore) Reconcile(ctx context.Context, walletID string) error {
	var stored, computed int64
	err := s.db.QueryRow(ctx, `
        SELECT w.balance,
               COALESCE(SUM(CASE m.direction WHEN 'CREDIT' THEN m.amount ELSE -m.amount END), 0)
        FROM wallets w
        LEFT JOIN mutation_log m ON m.wallet_id = w.id
        WHERE w.id = $1
        GROUP BY w.balance`, walletID).Scan(&stored, &computed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	if stored != computed {
		return ErrOutOfBalance
	}
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var w Wallet
	var created, updated time.Time
	if err := row.Scan(&w.ID, &w.AccountID, &w.Name, &w.Balance, &w.Status, &w.Version, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.CreatedAt = created.UTC()
	w.UpdatedAt = updated.UTC()
	return w, nil
}
