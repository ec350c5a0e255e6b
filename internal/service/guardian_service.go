package service

import (
	"context"
	"fmt"
	"time"

	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GuardianPolicy holds the thresholds the dispute sweep applies.
type GuardianPolicy struct {
	// AutoResolveThreshold: disputes over orders below this total are
	// refunded automatically.
	AutoResolveThreshold int64
	// EscalationWindow: open disputes older than this raise an escalation
	// to the administrative actor.
	EscalationWindow time.Duration
}

// GuardianService sweeps open disputes: low-value ones are auto-resolved with
// a granted refund, stale ones are escalated to an administrator. Each sweep
// isolates per-dispute failures so one bad record never halts the rest.
type GuardianService struct {
	disputeRepo ports.DisputeRepository
	orderRepo   ports.OrderRepository
	auditRepo   ports.AuditRepository
	approval    ports.ApprovalService
	sink        ports.NotificationSink
	policy      GuardianPolicy
	log         zerolog.Logger
	now         func() time.Time
}

// NewGuardianService creates a new GuardianService.
func NewGuardianService(
	disputeRepo ports.DisputeRepository,
	orderRepo ports.OrderRepository,
	auditRepo ports.AuditRepository,
	approval ports.ApprovalService,
	sink ports.NotificationSink,
	policy GuardianPolicy,
	log zerolog.Logger,
) *GuardianService {
	return &GuardianService{
		disputeRepo: disputeRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
		approval:    approval,
		sink:        sink,
		policy:      policy,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Test hook.
func (s *GuardianService) WithNow(now func() time.Time) *GuardianService {
	s.now = now
	return s
}

// Sweep processes every open dispute once. Idempotence comes from the status
// read: a dispute resolved by an earlier sweep is no longer listed, and the
// resolution path re-checks status before acting.
func (s *GuardianService) Sweep(ctx context.Context) error {
	disputes, err := s.disputeRepo.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open disputes: %w", err)
	}

	for i := range disputes {
		if err := s.processDispute(ctx, &disputes[i]); err != nil {
			s.log.Error().Err(err).
				Str("dispute_id", disputes[i].ID.String()).
				Msg("guardian dispute processing failed")
		}
	}
	return nil
}

func (s *GuardianService) processDispute(ctx context.Context, dispute *domain.Dispute) error {
	order, err := s.orderRepo.GetByID(ctx, dispute.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order %s not found", dispute.OrderID)
	}

	if order.Total < s.policy.AutoResolveThreshold {
		return s.autoResolve(ctx, dispute, order)
	}

	if dispute.Age(s.now()) > s.policy.EscalationWindow && dispute.EscalatedAt == nil {
		return s.escalate(ctx, dispute)
	}
	return nil
}

func (s *GuardianService) autoResolve(ctx context.Context, dispute *domain.Dispute, order *domain.Order) error {
	if _, err := s.approval.ResolveDispute(ctx, ports.ResolveDisputeRequest{
		DisputeID: dispute.ID,
		ActorRole: domain.RoleGuardian,
		Decision:  domain.DecisionGrantRefund,
	}); err != nil {
		return fmt.Errorf("auto-resolve: %w", err)
	}

	s.audit(ctx, dispute.ID, domain.AuditActionAutoResolve,
		fmt.Sprintf("order %s total %d below threshold %d", order.ID, order.Total, s.policy.AutoResolveThreshold))
	s.notifyAdmin(ctx,
		fmt.Sprintf("Dispute %s auto-resolved with refund of %d", dispute.ID, order.Total))

	s.log.Info().
		Str("dispute_id", dispute.ID.String()).
		Int64("order_total", order.Total).
		Msg("dispute auto-resolved")
	return nil
}

// escalate marks the dispute so later sweeps do not re-notify for it.
func (s *GuardianService) escalate(ctx context.Context, dispute *domain.Dispute) error {
	now := s.now()
	dispute.EscalatedAt = &now
	if err := s.disputeRepo.Update(ctx, dispute); err != nil {
		return fmt.Errorf("mark escalated: %w", err)
	}

	s.audit(ctx, dispute.ID, domain.AuditActionEscalate,
		fmt.Sprintf("open since %s", dispute.CreatedAt.Format(time.RFC3339)))
	s.notifyAdmin(ctx,
		fmt.Sprintf("Dispute %s has been open beyond the escalation window", dispute.ID))

	s.log.Info().
		Str("dispute_id", dispute.ID.String()).
		Time("created_at", dispute.CreatedAt).
		Msg("dispute escalated")
	return nil
}

func (s *GuardianService) audit(ctx context.Context, disputeID uuid.UUID, action domain.AuditAction, detail string) {
	if s.auditRepo == nil {
		return
	}
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		DisputeID: disputeID,
		Action:    action,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("dispute_id", disputeID.String()).Msg("audit entry write failed")
	}
}

func (s *GuardianService) notifyAdmin(ctx context.Context, message string) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(ctx, string(domain.RoleAdmin), message, ports.SeverityWarning); err != nil {
		s.log.Warn().Err(err).Msg("notification delivery failed")
	}
}
