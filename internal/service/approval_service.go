package service

import (
	"context"
	"fmt"
	"time"

	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ApprovalServiceImpl implements ports.ApprovalService: one state machine
// driving every configured approval chain.
type ApprovalServiceImpl struct {
	approvalRepo ports.ApprovalRequestRepository
	disputeRepo  ports.DisputeRepository
	orderRepo    ports.OrderRepository
	ledger       ports.LedgerService
	sink         ports.NotificationSink
	log          zerolog.Logger
}

// NewApprovalService creates a new ApprovalServiceImpl.
func NewApprovalService(
	approvalRepo ports.ApprovalRequestRepository,
	disputeRepo ports.DisputeRepository,
	orderRepo ports.OrderRepository,
	ledger ports.LedgerService,
	sink ports.NotificationSink,
	log zerolog.Logger,
) *ApprovalServiceImpl {
	return &ApprovalServiceImpl{
		approvalRepo: approvalRepo,
		disputeRepo:  disputeRepo,
		orderRepo:    orderRepo,
		ledger:       ledger,
		sink:         sink,
		log:          log,
	}
}

// Submit creates a request in its chain's initial stage and notifies the
// first-stage approver role.
func (s *ApprovalServiceImpl) Submit(ctx context.Context, req ports.SubmitApprovalRequest) (*domain.ApprovalRequest, error) {
	spec, ok := domain.Workflows[req.Kind]
	if !ok || req.Kind == domain.WorkflowDispute {
		return nil, apperror.ErrValidation(fmt.Sprintf("unrecognized workflow kind: %s", req.Kind))
	}
	if spec.Disburses && req.Amount <= 0 {
		return nil, apperror.ErrValidation("amount must be positive")
	}

	now := time.Now().UTC()
	record := &domain.ApprovalRequest{
		ID:          uuid.New(),
		Kind:        req.Kind,
		RequesterID: req.RequesterID,
		Branch:      req.Branch,
		OpexType:    req.OpexType,
		Amount:      req.Amount,
		ReceiptRef:  req.ReceiptRef,
		Stage:       spec.Stages[0],
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if req.Kind == domain.WorkflowOpex && record.OpexType == "" {
		record.OpexType = domain.OpexTypeGeneral
	}

	if err := s.approvalRepo.Create(ctx, record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create approval request: %w", err))
	}

	s.notify(ctx, string(spec.RequiredRole[record.Stage]),
		fmt.Sprintf("New %s request %s awaiting %s", record.Kind, record.ID, record.Stage),
		ports.SeverityInfo)

	s.log.Info().
		Str("request_id", record.ID.String()).
		Str("kind", string(record.Kind)).
		Str("stage", string(record.Stage)).
		Msg("approval request submitted")

	return record, nil
}

// Advance applies one approver decision to the request's current stage.
// Stage transitions are monotonic: rejections are terminal, approvals move to
// the next configured stage, and a disbursing final approval only becomes
// Approved after the ledger credit succeeds.
func (s *ApprovalServiceImpl) Advance(ctx context.Context, req ports.AdvanceRequest) (*domain.ApprovalRequest, error) {
	record, err := s.approvalRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get approval request: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrNotFound("approval request")
	}
	if record.Stage.IsTerminal() {
		return nil, apperror.ErrInvalidTransition(fmt.Sprintf("request is already %s", record.Stage))
	}

	spec := domain.Workflows[record.Kind]
	required := spec.RequiredRole[record.Stage]
	if req.ActorRole != required {
		return nil, apperror.ErrUnauthorizedActor(string(required))
	}

	now := time.Now().UTC()

	switch req.Decision {
	case domain.DecisionReject:
		prior := record.Stage
		record.Stage = spec.RejectedStage
		record.RejectionReason = req.RejectionReason
		record.UpdatedAt = now
		won, err := s.approvalRepo.UpdateFromStage(ctx, record, prior)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("update approval request: %w", err))
		}
		if !won {
			return nil, apperror.ErrInvalidTransition(fmt.Sprintf("request is no longer at %s", prior))
		}
		s.notify(ctx, record.RequesterID.String(),
			fmt.Sprintf("Your %s request was rejected: %s", record.Kind, record.RejectionReason),
			ports.SeverityWarning)

	case domain.DecisionApprove:
		prior := *record
		if err := s.applyStageApproval(record, req, now); err != nil {
			return nil, err
		}

		next, ok := spec.NextStage(record.Stage)
		if !ok {
			return nil, apperror.ErrInvalidTransition(fmt.Sprintf("stage %s does not belong to chain %s", record.Stage, record.Kind))
		}

		fromStage := record.Stage
		record.Stage = next
		record.UpdatedAt = now

		// Claim the transition before any money moves: of two concurrent
		// approvers only one write matches the prior stage, so a disbursing
		// final approval pays out at most once.
		won, err := s.approvalRepo.UpdateFromStage(ctx, record, fromStage)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("update approval request: %w", err))
		}
		if !won {
			return nil, apperror.ErrInvalidTransition(fmt.Sprintf("request is no longer at %s", fromStage))
		}

		if spec.IsFinalStage(fromStage) && spec.Disburses {
			if _, err := s.ledger.AddTransaction(ctx, ports.AddTransactionRequest{
				OwnerID:     record.RequesterID,
				Kind:        disbursementKind(record.Kind),
				Amount:      record.Amount,
				Description: fmt.Sprintf("%s request %s approved", record.Kind, record.ID),
			}); err != nil {
				// Reopen the claimed stage so the approval can be retried.
				prior.UpdatedAt = now
				if uerr := s.approvalRepo.Update(ctx, &prior); uerr != nil {
					s.log.Error().Err(uerr).
						Str("request_id", record.ID.String()).
						Msg("failed to reopen approval after disbursement failure")
				}
				s.log.Warn().Err(err).
					Str("request_id", record.ID.String()).
					Msg("disbursement failed, approval reopened")
				return nil, apperror.ErrDisbursementFailure(err)
			}
		}

		if next.IsTerminal() {
			s.notify(ctx, record.RequesterID.String(),
				fmt.Sprintf("Your %s request was approved", record.Kind),
				ports.SeverityInfo)
		} else {
			s.notify(ctx, string(spec.RequiredRole[next]),
				fmt.Sprintf("%s request %s awaiting %s", record.Kind, record.ID, next),
				ports.SeverityInfo)
		}

	default:
		return nil, apperror.ErrValidation(fmt.Sprintf("unrecognized decision: %s", req.Decision))
	}

	s.log.Info().
		Str("request_id", record.ID.String()).
		Str("stage", string(record.Stage)).
		Str("actor_role", string(req.ActorRole)).
		Str("decision", string(req.Decision)).
		Msg("approval request advanced")

	return record, nil
}

// applyStageApproval records stage-specific approval state on the request.
// The HR stage of a meal-allowance opex request must carry the finance-set
// allowance, which overwrites the requested amount.
func (s *ApprovalServiceImpl) applyStageApproval(record *domain.ApprovalRequest, req ports.AdvanceRequest, now time.Time) error {
	switch record.Stage {
	case domain.StagePendingHRVerification:
		if record.OpexType == domain.OpexTypeMealAllowance {
			if req.AllowanceAmount == nil || *req.AllowanceAmount <= 0 {
				return apperror.ErrValidation("meal allowance amount is required at HR verification")
			}
			record.Amount = *req.AllowanceAmount
		}
		record.HRApproverID = &req.ActorID
		record.HRApprovalTime = &now
	case domain.StagePendingFinanceApproval:
		record.FinanceApproverID = &req.ActorID
		record.FinanceApprovalTime = &now
	}
	return nil
}

// SubmitDispute opens a dispute against an existing order.
func (s *ApprovalServiceImpl) SubmitDispute(ctx context.Context, req ports.SubmitDisputeRequest) (*domain.Dispute, error) {
	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}

	dispute := &domain.Dispute{
		ID:        uuid.New(),
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		Reason:    req.Reason,
		Status:    domain.DisputeStatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create dispute: %w", err))
	}

	s.notify(ctx, string(domain.RoleAdmin),
		fmt.Sprintf("Dispute %s opened for order %s", dispute.ID, dispute.OrderID),
		ports.SeverityInfo)

	return dispute, nil
}

// ResolveDispute closes an open dispute. Administrators may grant a refund or
// side with the seller; the guardian actor may only grant refunds. The
// resolution is claimed with a conditional write before any money moves; if a
// granted refund then fails to disburse, the dispute is reopened for retry.
func (s *ApprovalServiceImpl) ResolveDispute(ctx context.Context, req ports.ResolveDisputeRequest) (*domain.Dispute, error) {
	dispute, err := s.disputeRepo.GetByID(ctx, req.DisputeID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get dispute: %w", err))
	}
	if dispute == nil {
		return nil, apperror.ErrNotFound("dispute")
	}
	if dispute.Status != domain.DisputeStatusOpen {
		return nil, apperror.ErrInvalidTransition("dispute is already resolved")
	}

	switch req.ActorRole {
	case domain.RoleAdmin:
		if req.Decision != domain.DecisionGrantRefund && req.Decision != domain.DecisionSideWithSeller {
			return nil, apperror.ErrValidation(fmt.Sprintf("unrecognized dispute decision: %s", req.Decision))
		}
	case domain.RoleGuardian:
		if req.Decision != domain.DecisionGrantRefund {
			return nil, apperror.ErrValidation("guardian may only grant refunds")
		}
	default:
		return nil, apperror.ErrUnauthorizedActor(string(domain.RoleAdmin))
	}

	var order *domain.Order
	if req.Decision == domain.DecisionGrantRefund {
		order, err = s.orderRepo.GetByID(ctx, dispute.OrderID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
		}
		if order == nil {
			return nil, apperror.ErrNotFound("order")
		}
	}

	now := time.Now().UTC()
	method := domain.ResolutionAdmin
	if req.ActorRole == domain.RoleGuardian {
		method = domain.ResolutionGuardian
	}
	decision := req.Decision
	dispute.Status = domain.DisputeStatusResolved
	dispute.ResolutionMethod = &method
	dispute.Decision = &decision
	dispute.ResolvedAt = &now

	// Claim the resolution before disbursing: of two concurrent resolvers
	// only one conditional write lands, so a granted refund pays out at most
	// once.
	won, err := s.disputeRepo.MarkResolved(ctx, dispute)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark dispute resolved: %w", err))
	}
	if !won {
		return nil, apperror.ErrInvalidTransition("dispute is already resolved")
	}

	if req.Decision == domain.DecisionGrantRefund {
		if err := s.ledger.RefundOrder(ctx, ports.RefundOrderRequest{
			OrderID:   order.ID,
			DisputeID: dispute.ID,
			BuyerID:   dispute.BuyerID,
			SellerID:  dispute.SellerID,
			Amount:    order.Total,
		}); err != nil {
			// Reopen so the resolution can be retried.
			dispute.Status = domain.DisputeStatusOpen
			dispute.ResolutionMethod = nil
			dispute.Decision = nil
			dispute.ResolvedAt = nil
			if uerr := s.disputeRepo.Update(ctx, dispute); uerr != nil {
				s.log.Error().Err(uerr).
					Str("dispute_id", dispute.ID.String()).
					Msg("failed to reopen dispute after refund failure")
			}
			s.log.Warn().Err(err).
				Str("dispute_id", dispute.ID.String()).
				Msg("refund disbursement failed, dispute reopened")
			return nil, apperror.ErrDisbursementFailure(err)
		}
	}

	s.notify(ctx, dispute.BuyerID.String(),
		fmt.Sprintf("Dispute %s resolved: %s", dispute.ID, decision),
		ports.SeverityInfo)
	s.notify(ctx, dispute.SellerID.String(),
		fmt.Sprintf("Dispute %s resolved: %s", dispute.ID, decision),
		ports.SeverityInfo)

	s.log.Info().
		Str("dispute_id", dispute.ID.String()).
		Str("decision", string(decision)).
		Str("method", string(method)).
		Msg("dispute resolved")

	return dispute, nil
}

func disbursementKind(kind domain.WorkflowKind) domain.TransactionKind {
	switch kind {
	case domain.WorkflowOpex:
		return domain.KindDanaOpex
	case domain.WorkflowInsurance:
		return domain.KindInsuranceClaim
	default:
		return domain.KindInternalTransfer
	}
}

// notify delivers best-effort: sink failures are logged, never propagated.
func (s *ApprovalServiceImpl) notify(ctx context.Context, recipient, message string, severity ports.Severity) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(ctx, recipient, message, severity); err != nil {
		s.log.Warn().Err(err).Str("recipient", recipient).Msg("notification delivery failed")
	}
}
