package postgres

import (
	"context"
	"errors"
	"fmt"

	"homecare-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DisputeRepo implements ports.DisputeRepository.
type DisputeRepo struct {
	pool Pool
}

// NewDisputeRepo creates a new DisputeRepo.
func NewDisputeRepo(pool Pool) *DisputeRepo {
	return &DisputeRepo{pool: pool}
}

const disputeColumns = `id, order_id, buyer_id, seller_id, reason, status,
		resolution_method, decision, escalated_at, created_at, resolved_at`

// Create inserts a new dispute.
func (r *DisputeRepo) Create(ctx context.Context, d *domain.Dispute) error {
	query := `INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.OrderID, d.BuyerID, d.SellerID, d.Reason, d.Status,
		d.ResolutionMethod, d.Decision, d.EscalatedAt, d.CreatedAt, d.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dispute: %w", err)
	}
	return nil
}

// GetByID fetches a dispute by its UUID.
func (r *DisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`

	d := &domain.Dispute{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.OrderID, &d.BuyerID, &d.SellerID, &d.Reason, &d.Status,
		&d.ResolutionMethod, &d.Decision, &d.EscalatedAt, &d.CreatedAt, &d.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dispute by id: %w", err)
	}
	return d, nil
}

// Update persists the mutable fields of a dispute.
func (r *DisputeRepo) Update(ctx context.Context, d *domain.Dispute) error {
	query := `UPDATE disputes SET
			status = $1, resolution_method = $2, decision = $3,
			escalated_at = $4, resolved_at = $5
		WHERE id = $6`

	tag, err := r.pool.Exec(ctx, query,
		d.Status, d.ResolutionMethod, d.Decision, d.EscalatedAt, d.ResolvedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dispute not found: %s", d.ID)
	}
	return nil
}

// MarkResolved persists the resolution only while the stored row is still
// Open, so an admin and a guardian tick racing on the same dispute close it
// exactly once.
func (r *DisputeRepo) MarkResolved(ctx context.Context, d *domain.Dispute) (bool, error) {
	query := `UPDATE disputes SET
			status = $1, resolution_method = $2, decision = $3,
			escalated_at = $4, resolved_at = $5
		WHERE id = $6 AND status = $7`

	tag, err := r.pool.Exec(ctx, query,
		d.Status, d.ResolutionMethod, d.Decision, d.EscalatedAt, d.ResolvedAt,
		d.ID, domain.DisputeStatusOpen,
	)
	if err != nil {
		return false, fmt.Errorf("mark dispute resolved: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListOpen fetches all open disputes, oldest first, for the guardian sweep.
func (r *DisputeRepo) ListOpen(ctx context.Context) ([]domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes
		WHERE status = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, domain.DisputeStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("list open disputes: %w", err)
	}
	defer rows.Close()

	var disputes []domain.Dispute
	for rows.Next() {
		var d domain.Dispute
		if err := rows.Scan(
			&d.ID, &d.OrderID, &d.BuyerID, &d.SellerID, &d.Reason, &d.Status,
			&d.ResolutionMethod, &d.Decision, &d.EscalatedAt, &d.CreatedAt, &d.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan dispute row: %w", err)
		}
		disputes = append(disputes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispute rows: %w", err)
	}
	return disputes, nil
}
