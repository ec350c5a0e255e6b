package postgres

import (
	"context"
	"errors"
	"fmt"

	"homecare-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The transactions
// table is append-only; this repo exposes no update or delete.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction record within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, owner_id, kind, amount, description, status, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.OwnerID, t.Kind, t.Amount, t.Description, t.Status, t.RelatedID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by its UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, owner_id, kind, amount, description, status, related_id, created_at
		FROM transactions WHERE id = $1`

	t := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.OwnerID, &t.Kind, &t.Amount, &t.Description, &t.Status, &t.RelatedID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// ListByOwner fetches the most recent transactions for an owner, newest first.
func (r *TransactionRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `SELECT id, owner_id, kind, amount, description, status, related_id, created_at
		FROM transactions WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions by owner: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Kind, &t.Amount, &t.Description, &t.Status, &t.RelatedID, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return transactions, nil
}

// ReversalExists reports whether a reversal already points at the original
// transaction. It reads through the caller's transaction so the check sits
// behind the wallet row lock taken by the reversal itself.
func (r *TransactionRepo) ReversalExists(ctx context.Context, tx pgx.Tx, originalID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM transactions WHERE related_id = $1 AND kind = $2
	)`

	var exists bool
	err := tx.QueryRow(ctx, query, originalID, domain.KindReversal).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reversal exists: %w", err)
	}
	return exists, nil
}
