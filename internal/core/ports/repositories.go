package ports

import (
	"context"

	"homecare-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking; the ledger service is the only caller of UpdateBalance.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error
	// SetFrozen only toggles the flag. It never rewrites the balance and does
	// not retroactively touch transactions made before freezing.
	SetFrozen(ctx context.Context, ownerID uuid.UUID, frozen bool) error
}

// TransactionRepository defines persistence for the append-only transaction
// log. There is deliberately no update or delete operation.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Transaction, error)
	// ReversalExists runs inside the reversal's own transaction, after the
	// owner wallet is locked, so concurrent reversals of the same original
	// serialize instead of both passing the duplicate check.
	ReversalExists(ctx context.Context, tx pgx.Tx, originalID uuid.UUID) (bool, error)
}

// ApprovalRequestRepository defines persistence for staged approval requests.
// Terminal requests are retained for audit, never deleted.
type ApprovalRequestRepository interface {
	Create(ctx context.Context, req *domain.ApprovalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error)
	Update(ctx context.Context, req *domain.ApprovalRequest) error
	// UpdateFromStage persists req only when the stored request still sits at
	// from. The bool reports whether this caller won the transition; a false
	// return means a concurrent decision landed first.
	UpdateFromStage(ctx context.Context, req *domain.ApprovalRequest, from domain.Stage) (bool, error)
	ListByStage(ctx context.Context, kind domain.WorkflowKind, stage domain.Stage) ([]domain.ApprovalRequest, error)
}

// DisputeRepository defines persistence for order disputes.
type DisputeRepository interface {
	Create(ctx context.Context, dispute *domain.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Dispute, error)
	Update(ctx context.Context, dispute *domain.Dispute) error
	// MarkResolved persists the resolution only when the stored dispute is
	// still Open. The bool reports whether this caller won; a false return
	// means another resolver already closed the dispute.
	MarkResolved(ctx context.Context, dispute *domain.Dispute) (bool, error)
	ListOpen(ctx context.Context) ([]domain.Dispute, error)
}

// OrderRepository exposes the order facts the dispute paths read.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// AuditRepository persists the guardian's automated-action trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]domain.AuditEntry, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
