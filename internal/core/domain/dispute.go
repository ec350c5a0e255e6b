package domain

import (
	"time"

	"github.com/google/uuid"
)

// DisputeStatus is the dispute lifecycle state. Resolved is terminal: no
// automated or manual action may change a resolved dispute.
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

// ResolutionMethod records which actor closed a dispute.
type ResolutionMethod string

const (
	ResolutionGuardian ResolutionMethod = "GUARDIAN"
	ResolutionAdmin    ResolutionMethod = "ADMIN"
)

// Dispute is a buyer/seller disagreement over an order. It is resolved either
// manually by an administrator or automatically by the guardian sweep.
type Dispute struct {
	ID               uuid.UUID         `json:"id"`
	OrderID          uuid.UUID         `json:"order_id"`
	BuyerID          uuid.UUID         `json:"buyer_id"`
	SellerID         uuid.UUID         `json:"seller_id"`
	Reason           string            `json:"reason"`
	Status           DisputeStatus     `json:"status"`
	ResolutionMethod *ResolutionMethod `json:"resolution_method,omitempty"`
	Decision         *Decision         `json:"decision,omitempty"`
	EscalatedAt      *time.Time        `json:"escalated_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty"`
}

// Age returns how long the dispute has been open as of now.
func (d *Dispute) Age(now time.Time) time.Duration {
	return now.Sub(d.CreatedAt)
}

// Order carries the marketplace order facts the dispute paths need: who paid
// whom and how much. The catalog side of orders lives outside this core.
type Order struct {
	ID        uuid.UUID `json:"id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}
