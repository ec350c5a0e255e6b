package dto

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	OwnerID string `json:"owner_id" binding:"required,uuid"`
}

// WalletResponse is the response body for a wallet.
type WalletResponse struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Balance  int64  `json:"balance"`
	IsFrozen bool   `json:"is_frozen"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	OwnerID string `json:"owner_id"`
	Balance int64  `json:"balance"`
}

// FreezeRequest is the request body for toggling a wallet freeze.
type FreezeRequest struct {
	Frozen *bool `json:"frozen" binding:"required"`
}

// AddTransactionRequest is the request body for a ledger mutation.
// Amount is signed: positive credits, negative debits.
type AddTransactionRequest struct {
	OwnerID     string  `json:"owner_id" binding:"required,uuid"`
	Kind        string  `json:"kind" binding:"required"`
	Amount      int64   `json:"amount" binding:"required"`
	Description string  `json:"description" binding:"max=255"`
	RelatedID   *string `json:"related_id,omitempty" binding:"omitempty,uuid"`
}

// TransactionResponse is the response body for a ledger entry.
type TransactionResponse struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	Kind        string  `json:"kind"`
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	RelatedID   *string `json:"related_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// AdminTransferRequest is the request body for profit-to-cash transfers.
type AdminTransferRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// AdminExpenseRequest is the request body for tax payments and operational
// expenses.
type AdminExpenseRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=255"`
}

// SubmitApprovalRequest is the request body for opening an approval request.
type SubmitApprovalRequest struct {
	Kind       string `json:"kind" binding:"required"`
	Branch     string `json:"branch" binding:"max=100"`
	OpexType   string `json:"opex_type" binding:"max=50"`
	Amount     int64  `json:"amount" binding:"gte=0"`
	ReceiptRef string `json:"receipt_ref" binding:"max=100"`
}

// DecisionRequest is the request body for an approver's stage decision.
type DecisionRequest struct {
	Decision        string `json:"decision" binding:"required"`
	RejectionReason string `json:"rejection_reason" binding:"max=255"`
	AllowanceAmount *int64 `json:"allowance_amount,omitempty"`
}

// ApprovalResponse is the response body for an approval request.
type ApprovalResponse struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	RequesterID     string `json:"requester_id"`
	Branch          string `json:"branch,omitempty"`
	OpexType        string `json:"opex_type,omitempty"`
	Amount          int64  `json:"amount"`
	ReceiptRef      string `json:"receipt_ref,omitempty"`
	Stage           string `json:"stage"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	SubmittedAt     string `json:"submitted_at"`
	UpdatedAt       string `json:"updated_at"`
}

// CreateOrderRequest is the request body for recording an order.
type CreateOrderRequest struct {
	BuyerID  string `json:"buyer_id" binding:"required,uuid"`
	SellerID string `json:"seller_id" binding:"required,uuid"`
	Total    int64  `json:"total" binding:"required,gt=0"`
}

// OrderResponse is the response body for an order.
type OrderResponse struct {
	ID        string `json:"id"`
	BuyerID   string `json:"buyer_id"`
	SellerID  string `json:"seller_id"`
	Total     int64  `json:"total"`
	CreatedAt string `json:"created_at"`
}

// SubmitDisputeRequest is the request body for opening a dispute.
type SubmitDisputeRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
	Reason  string `json:"reason" binding:"required,max=500"`
}

// ResolveDisputeRequest is the request body for a manual dispute resolution.
type ResolveDisputeRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// DisputeResponse is the response body for a dispute.
type DisputeResponse struct {
	ID               string  `json:"id"`
	OrderID          string  `json:"order_id"`
	BuyerID          string  `json:"buyer_id"`
	SellerID         string  `json:"seller_id"`
	Reason           string  `json:"reason"`
	Status           string  `json:"status"`
	ResolutionMethod *string `json:"resolution_method,omitempty"`
	Decision         *string `json:"decision,omitempty"`
	EscalatedAt      *string `json:"escalated_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
	ResolvedAt       *string `json:"resolved_at,omitempty"`
}

// AuditEntryResponse is one guardian audit trail row.
type AuditEntryResponse struct {
	ID        string `json:"id"`
	DisputeID string `json:"dispute_id"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}
