package fraud

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VerdictRepository persists fraud verdicts.
type VerdictRepository interface {
	Save(ctx context.Context, v Verdict) error
	Get(ctx context.Context, verdictID string) (Verdict, error)
	List(ctx context.Context) ([]Verdict, error)
}

type memoryRepository struct {
	mu       sync.RWMutex
	verdicts []Verdict
	byID     map[string]Verdict
}

// NewMemoryRepository constructs an in-memory verdict log for tests and
// single-process deployments.
func NewMemoryRepository() VerdictRepository {
	return &memoryRepository{byID: make(map[string]Verdict)}
}

func (r *memoryRepository) Save(_ context.Context, v Verdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, v)
	r.byID[v.ID] = v
	return nil
}

func (r *memoryRepository) Get(_ context.Context, verdictID string) (Verdict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byID[verdictID]
	if !ok {
		return Verdict{}, ErrVerdictNotFound
	}
	return v, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Verdict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Verdict, len(r.verdicts))
	for i, v := range r.verdicts {
		out[len(r.verdicts)-1-i] = v
	}
	return out, nil
}

// PostgresRepository stores verdicts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a verdict repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save inserts a verdict record.
func (r *PostgresRepository) Save(ctx context.Context, v Verdict) error {
	_, err := r.db.Exec(ctx, `INSERT INTO fraud_verdicts (id, account_id, amount, label, reason, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, v.ID, v.AccountID, v.Amount, v.Label, v.Reason, v.CreatedAt)
	return err
}

// Get fetches a verdict by identifier.
func (r *PostgresRepository) Get(ctx context.Context, verdictID string) (Verdict, error) {
	row := r.db.QueryRow(ctx, `SELECT id, account_id, amount, label, reason, created_at
        FROM fraud_verdicts WHERE id = $1`, verdictID)
	var v Verdict
	var created time.Time
	if err := row.Scan(&v.ID, &v.AccountID, &v.Amount, &v.Label, &v.Reason, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Verdict{}, ErrVerdictNotFound
		}
		return Verdict{}, err
	}
	v.CreatedAt = created.UTC()
	return v, nil
}

// List returns verdicts, most recent first.
func (r *PostgresRepository) List(ctx context.Context) ([]Verdict, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, amount, label, reason, created_at
        FROM fraud_verdicts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Verdict
	for rows.Next() {
		var v Verdict
		var created time.Time
		if err := rows.Scan(&v.ID, &v.AccountID, &v.Amount, &v.Label, &v.Reason, &created); err != nil {
			return nil, err
		}
		v.CreatedAt = created.UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}
