package postgres

import (
	"context"
	"errors"
	"fmt"

	"homecare-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ApprovalRepo implements ports.ApprovalRequestRepository.
type ApprovalRepo struct {
	pool Pool
}

// NewApprovalRepo creates a new ApprovalRepo.
func NewApprovalRepo(pool Pool) *ApprovalRepo {
	return &ApprovalRepo{pool: pool}
}

const approvalColumns = `id, kind, requester_id, branch, opex_type, amount, receipt_ref, stage,
		hr_approver_id, hr_approval_time, finance_approver_id, finance_approval_time,
		rejection_reason, submitted_at, updated_at`

// Create inserts a new approval request.
func (r *ApprovalRepo) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `INSERT INTO approval_requests (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.Kind, req.RequesterID, req.Branch, req.OpexType, req.Amount,
		req.ReceiptRef, req.Stage, req.HRApproverID, req.HRApprovalTime,
		req.FinanceApproverID, req.FinanceApprovalTime, req.RejectionReason,
		req.SubmittedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval request: %w", err)
	}
	return nil
}

// GetByID fetches an approval request by its UUID.
func (r *ApprovalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`

	req := &domain.ApprovalRequest{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.Kind, &req.RequesterID, &req.Branch, &req.OpexType, &req.Amount,
		&req.ReceiptRef, &req.Stage, &req.HRApproverID, &req.HRApprovalTime,
		&req.FinanceApproverID, &req.FinanceApprovalTime, &req.RejectionReason,
		&req.SubmittedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get approval request by id: %w", err)
	}
	return req, nil
}

// Update persists the mutable fields of an approval request.
func (r *ApprovalRepo) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `UPDATE approval_requests SET
			amount = $1, stage = $2, hr_approver_id = $3, hr_approval_time = $4,
			finance_approver_id = $5, finance_approval_time = $6,
			rejection_reason = $7, updated_at = NOW()
		WHERE id = $8`

	tag, err := r.pool.Exec(ctx, query,
		req.Amount, req.Stage, req.HRApproverID, req.HRApprovalTime,
		req.FinanceApproverID, req.FinanceApprovalTime, req.RejectionReason, req.ID,
	)
	if err != nil {
		return fmt.Errorf("update approval request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("approval request not found: %s", req.ID)
	}
	return nil
}

// UpdateFromStage persists req only if the stored row is still at from.
// Concurrent deciders race on the stage predicate; the loser gets false.
func (r *ApprovalRepo) UpdateFromStage(ctx context.Context, req *domain.ApprovalRequest, from domain.Stage) (bool, error) {
	query := `UPDATE approval_requests SET
			amount = $1, stage = $2, hr_approver_id = $3, hr_approval_time = $4,
			finance_approver_id = $5, finance_approval_time = $6,
			rejection_reason = $7, updated_at = NOW()
		WHERE id = $8 AND stage = $9`

	tag, err := r.pool.Exec(ctx, query,
		req.Amount, req.Stage, req.HRApproverID, req.HRApprovalTime,
		req.FinanceApproverID, req.FinanceApprovalTime, req.RejectionReason,
		req.ID, from,
	)
	if err != nil {
		return false, fmt.Errorf("update approval request from stage: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByStage fetches requests of a kind sitting at a given stage, oldest first.
func (r *ApprovalRepo) ListByStage(ctx context.Context, kind domain.WorkflowKind, stage domain.Stage) ([]domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests
		WHERE kind = $1 AND stage = $2 ORDER BY submitted_at ASC`

	rows, err := r.pool.Query(ctx, query, kind, stage)
	if err != nil {
		return nil, fmt.Errorf("list approval requests by stage: %w", err)
	}
	defer rows.Close()

	var requests []domain.ApprovalRequest
	for rows.Next() {
		var req domain.ApprovalRequest
		if err := rows.Scan(
			&req.ID, &req.Kind, &req.RequesterID, &req.Branch, &req.OpexType, &req.Amount,
			&req.ReceiptRef, &req.Stage, &req.HRApproverID, &req.HRApprovalTime,
			&req.FinanceApproverID, &req.FinanceApprovalTime, &req.RejectionReason,
			&req.SubmittedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan approval request row: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval request rows: %w", err)
	}
	return requests, nil
}
