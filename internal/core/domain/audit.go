package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the type of automated action recorded in the guardian trail.
type AuditAction string

const (
	AuditActionAutoResolve AuditAction = "AUTO_RESOLVE"
	AuditActionEscalate    AuditAction = "ESCALATE"
)

// AuditEntry records one automated guardian action against a dispute.
type AuditEntry struct {
	ID        uuid.UUID   `json:"id"`
	DisputeID uuid.UUID   `json:"dispute_id"`
	Action    AuditAction `json:"action"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
