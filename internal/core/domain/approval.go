package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowKind identifies one of the configured approval chains.
type WorkflowKind string

const (
	WorkflowOpex      WorkflowKind = "OPEX"
	WorkflowInsurance WorkflowKind = "INSURANCE_CLAIM"
	WorkflowLeave     WorkflowKind = "LEAVE"
	WorkflowDispute   WorkflowKind = "DISPUTE"
)

// Stage is a named step in an approval chain.
type Stage string

const (
	StagePendingHRVerification  Stage = "PENDING_HR_VERIFICATION"
	StagePendingFinanceApproval Stage = "PENDING_FINANCE_APPROVAL"
	StagePending                Stage = "PENDING"
	StageOpen                   Stage = "OPEN"
	StageApproved               Stage = "APPROVED"
	StageRejected               Stage = "REJECTED"
	StageResolved               Stage = "RESOLVED"
)

// IsTerminal reports whether no further transition may leave the stage.
func (s Stage) IsTerminal() bool {
	return s == StageApproved || s == StageRejected || s == StageResolved
}

// Role is the actor role an approval stage requires.
type Role string

const (
	RoleHR       Role = "HR"
	RoleFinance  Role = "FINANCE"
	RoleAdmin    Role = "ADMIN"
	RoleGuardian Role = "GUARDIAN"
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
)

// WorkflowSpec describes one chain: the ordered non-terminal stages, the role
// required at each, and whether terminal approval disburses funds.
type WorkflowSpec struct {
	Kind          WorkflowKind
	Stages        []Stage
	RequiredRole  map[Stage]Role
	ApprovedStage Stage
	RejectedStage Stage
	Disburses     bool
}

// Workflows is the chain configuration keyed by kind. Each chain is driven by
// the same engine; adding a request kind means adding an entry here, not
// re-deriving transition logic.
var Workflows = map[WorkflowKind]WorkflowSpec{
	WorkflowOpex: {
		Kind:   WorkflowOpex,
		Stages: []Stage{StagePendingHRVerification, StagePendingFinanceApproval},
		RequiredRole: map[Stage]Role{
			StagePendingHRVerification:  RoleHR,
			StagePendingFinanceApproval: RoleFinance,
		},
		ApprovedStage: StageApproved,
		RejectedStage: StageRejected,
		Disburses:     true,
	},
	WorkflowInsurance: {
		Kind:          WorkflowInsurance,
		Stages:        []Stage{StagePending},
		RequiredRole:  map[Stage]Role{StagePending: RoleAdmin},
		ApprovedStage: StageApproved,
		RejectedStage: StageRejected,
		Disburses:     true,
	},
	WorkflowLeave: {
		Kind:          WorkflowLeave,
		Stages:        []Stage{StagePending},
		RequiredRole:  map[Stage]Role{StagePending: RoleManager},
		ApprovedStage: StageApproved,
		RejectedStage: StageRejected,
		Disburses:     false,
	},
	WorkflowDispute: {
		Kind:          WorkflowDispute,
		Stages:        []Stage{StageOpen},
		RequiredRole:  map[Stage]Role{StageOpen: RoleAdmin},
		ApprovedStage: StageResolved,
		RejectedStage: StageResolved,
		Disburses:     true,
	},
}

// NextStage returns the stage after current, or the approved terminal stage
// when current is the last non-terminal one. ok is false when current does not
// belong to the chain.
func (w WorkflowSpec) NextStage(current Stage) (Stage, bool) {
	for i, s := range w.Stages {
		if s != current {
			continue
		}
		if i+1 < len(w.Stages) {
			return w.Stages[i+1], true
		}
		return w.ApprovedStage, true
	}
	return "", false
}

// IsFinalStage reports whether current is the last stage before terminal
// approval.
func (w WorkflowSpec) IsFinalStage(current Stage) bool {
	return len(w.Stages) > 0 && w.Stages[len(w.Stages)-1] == current
}

// OpexType distinguishes operational-expense request flavors. Meal allowance
// carries an HR-stage amount override set by finance policy.
type OpexType string

const (
	OpexTypeGeneral       OpexType = "GENERAL"
	OpexTypeMealAllowance OpexType = "MEAL_ALLOWANCE"
)

// ApprovalRequest is the generic staged-approval record. Kind-specific fields
// are pointers and populated only for the kinds that use them.
type ApprovalRequest struct {
	ID          uuid.UUID    `json:"id"`
	Kind        WorkflowKind `json:"kind"`
	RequesterID uuid.UUID    `json:"requester_id"`
	Branch      string       `json:"branch,omitempty"`
	OpexType    OpexType     `json:"opex_type,omitempty"`
	Amount      int64        `json:"amount"`
	ReceiptRef  string       `json:"receipt_ref,omitempty"`
	Stage       Stage        `json:"stage"`

	HRApproverID        *uuid.UUID `json:"hr_approver_id,omitempty"`
	HRApprovalTime      *time.Time `json:"hr_approval_time,omitempty"`
	FinanceApproverID   *uuid.UUID `json:"finance_approver_id,omitempty"`
	FinanceApprovalTime *time.Time `json:"finance_approval_time,omitempty"`
	RejectionReason     string     `json:"rejection_reason,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Decision is an approver's verdict on the current stage.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"

	// Dispute-only decisions. Both are terminal; only GrantRefund moves money.
	DecisionGrantRefund    Decision = "GRANT_REFUND"
	DecisionSideWithSeller Decision = "SIDE_WITH_SELLER"
)
