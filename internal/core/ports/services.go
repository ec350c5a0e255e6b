package ports

import (
	"context"
	"time"

	"homecare-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- Service Ports (Business Logic) ---

// LedgerService is the only component permitted to mutate wallet balances.
// Every mutation appends a transaction row and applies the balance delta as
// one atomic unit.
type LedgerService interface {
	AddTransaction(ctx context.Context, req AddTransactionRequest) (*domain.Transaction, error)
	ReverseTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	RefundOrder(ctx context.Context, req RefundOrderRequest) error

	// Administrative compound transfers. Each commits both legs or neither.
	TransferProfitToCash(ctx context.Context, amount int64) error
	RecordTaxPayment(ctx context.Context, amount int64, description string) error
	RecordOperationalExpense(ctx context.Context, amount int64, description string) error

	// Read side.
	GetBalance(ctx context.Context, ownerID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Transaction, error)
}

// AddTransactionRequest holds validated input for a ledger mutation.
// Amount is signed: positive credits, negative debits. Zero is rejected.
type AddTransactionRequest struct {
	OwnerID     uuid.UUID
	Kind        domain.TransactionKind
	Amount      int64
	Description string
	RelatedID   *uuid.UUID
}

// RefundOrderRequest holds input for the two-leg dispute disbursement:
// buyer is credited the order total, seller is debited the same amount.
type RefundOrderRequest struct {
	OrderID   uuid.UUID
	DisputeID uuid.UUID
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
	Amount    int64
}

// ApprovalService drives every staged approval chain through one engine.
type ApprovalService interface {
	Submit(ctx context.Context, req SubmitApprovalRequest) (*domain.ApprovalRequest, error)
	Advance(ctx context.Context, req AdvanceRequest) (*domain.ApprovalRequest, error)

	SubmitDispute(ctx context.Context, req SubmitDisputeRequest) (*domain.Dispute, error)
	ResolveDispute(ctx context.Context, req ResolveDisputeRequest) (*domain.Dispute, error)
}

// SubmitApprovalRequest holds input for creating a request in its initial stage.
type SubmitApprovalRequest struct {
	Kind        domain.WorkflowKind
	RequesterID uuid.UUID
	Branch      string
	OpexType    domain.OpexType
	Amount      int64
	ReceiptRef  string
}

// AdvanceRequest holds one approver's decision on the current stage.
// AllowanceAmount is the finance-set meal allowance the HR stage applies; it
// is required for meal-allowance opex requests and ignored elsewhere.
type AdvanceRequest struct {
	RequestID       uuid.UUID
	ActorID         uuid.UUID
	ActorRole       domain.Role
	Decision        domain.Decision
	RejectionReason string
	AllowanceAmount *int64
}

// SubmitDisputeRequest opens a dispute against an order.
type SubmitDisputeRequest struct {
	OrderID uuid.UUID
	Reason  string
}

// ResolveDisputeRequest closes an open dispute. GrantRefund disburses; a
// failed disbursement leaves the dispute open.
type ResolveDisputeRequest struct {
	DisputeID uuid.UUID
	ActorRole domain.Role
	Decision  domain.Decision
}

// Severity classifies user-facing notifications.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// NotificationSink receives user-facing event notifications. Delivery is
// fire-and-forget: a sink failure must never block or fail a ledger or
// workflow operation, so callers log returned errors and move on.
// Recipient is an owner ID string or a role name for stage-approver fan-out.
type NotificationSink interface {
	Notify(ctx context.Context, recipient string, message string, severity Severity) error
}

// TokenService validates the actor identity tokens the approval endpoints
// consume. Issuing sits with the surrounding platform; Generate exists for
// tooling and tests.
type TokenService interface {
	Generate(actorID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed actor claims.
type TokenClaims struct {
	ActorID uuid.UUID
	Role    domain.Role
}
