package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type guardianTestDeps struct {
	svc         *GuardianService
	disputeRepo *mocks.MockDisputeRepository
	orderRepo   *mocks.MockOrderRepository
	auditRepo   *mocks.MockAuditRepository
	approval    *mocks.MockApprovalService
	sink        *mocks.MockNotificationSink
	ctrl        *gomock.Controller
}

var testPolicy = GuardianPolicy{
	AutoResolveThreshold: 50000,
	EscalationWindow:     7 * 24 * time.Hour,
}

func setupGuardianService(t *testing.T) *guardianTestDeps {
	ctrl := gomock.NewController(t)
	d := &guardianTestDeps{
		disputeRepo: mocks.NewMockDisputeRepository(ctrl),
		orderRepo:   mocks.NewMockOrderRepository(ctrl),
		auditRepo:   mocks.NewMockAuditRepository(ctrl),
		approval:    mocks.NewMockApprovalService(ctrl),
		sink:        mocks.NewMockNotificationSink(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewGuardianService(d.disputeRepo, d.orderRepo, d.auditRepo, d.approval, d.sink, testPolicy, zerolog.Nop())
	return d
}

func openDispute(orderID uuid.UUID, createdAt time.Time) domain.Dispute {
	return domain.Dispute{
		ID:        uuid.New(),
		OrderID:   orderID,
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		Reason:    "item not delivered",
		Status:    domain.DisputeStatusOpen,
		CreatedAt: createdAt,
	}
}

func TestGuardianService_Sweep_AutoResolvesBelowThreshold(t *testing.T) {
	d := setupGuardianService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := &domain.Order{ID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New(), Total: 30000}
	dispute := openDispute(order.ID, time.Now().UTC())

	d.disputeRepo.EXPECT().ListOpen(ctx).Return([]domain.Dispute{dispute}, nil)
	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)
	d.approval.EXPECT().ResolveDispute(ctx, ports.ResolveDisputeRequest{
		DisputeID: dispute.ID,
		ActorRole: domain.RoleGuardian,
		Decision:  domain.DecisionGrantRefund,
	}).Return(&domain.Dispute{ID: dispute.ID, Status: domain.DisputeStatusResolved}, nil)
	d.auditRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.AuditEntry) error {
			assert.Equal(t, dispute.ID, entry.DisputeID)
			assert.Equal(t, domain.AuditActionAutoResolve, entry.Action)
			return nil
		})
	d.sink.EXPECT().Notify(ctx, string(domain.RoleAdmin), gomock.Any(), ports.SeverityWarning).Return(nil)

	require.NoError(t, d.svc.Sweep(ctx))
}

func TestGuardianService_Sweep_EscalatesStaleDispute(t *testing.T) {
	d := setupGuardianService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	now := time.Now().UTC()
	order := &domain.Order{ID: uuid.New(), Total: 200000}
	dispute := openDispute(order.ID, now.Add(-8*24*time.Hour))

	d.svc.WithNow(func() time.Time { return now })

	d.disputeRepo.EXPECT().ListOpen(ctx).Return([]domain.Dispute{dispute}, nil)
	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)
	d.disputeRepo.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, updated *domain.Dispute) error {
			require.NotNil(t, updated.EscalatedAt)
			assert.Equal(t, now, *updated.EscalatedAt)
			assert.Equal(t, domain.DisputeStatusOpen, updated.Status)
			return nil
		})
	d.auditRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.AuditEntry) error {
			assert.Equal(t, domain.AuditActionEscalate, entry.Action)
			return nil
		})
	d.sink.EXPECT().Notify(ctx, string(domain.RoleAdmin), gomock.Any(), ports.SeverityWarning).Return(nil)

	require.NoError(t, d.svc.Sweep(ctx))
}

func TestGuardianService_Sweep_SkipsAlreadyEscalated(t *testing.T) {
	d := setupGuardianService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	now := time.Now().UTC()
	order := &domain.Order{ID: uuid.New(), Total: 200000}
	dispute := openDispute(order.ID, now.Add(-10*24*time.Hour))
	escalated := now.Add(-2 * 24 * time.Hour)
	dispute.EscalatedAt = &escalated

	d.svc.WithNow(func() time.Time { return now })

	d.disputeRepo.EXPECT().ListOpen(ctx).Return([]domain.Dispute{dispute}, nil)
	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)
	// No Update, audit, or notification: the escalation already happened.

	require.NoError(t, d.svc.Sweep(ctx))
}

func TestGuardianService_Sweep_LeavesRecentHighValueDisputeAlone(t *testing.T) {
	d := setupGuardianService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := &domain.Order{ID: uuid.New(), Total: 200000}
	dispute := openDispute(order.ID, time.Now().UTC().Add(-time.Hour))

	d.disputeRepo.EXPECT().ListOpen(ctx).Return([]domain.Dispute{dispute}, nil)
	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)

	require.NoError(t, d.svc.Sweep(ctx))
}

func TestGuardianService_Sweep_IsolatesPerDisputeFailures(t *testing.T) {
	d := setupGuardianService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	broken := openDispute(uuid.New(), time.Now().UTC())
	order := &domain.Order{ID: uuid.New(), Total: 30000}
	healthy := openDispute(order.ID, time.Now().UTC())

	d.disputeRepo.EXPECT().ListOpen(ctx).Return([]domain.Dispute{broken, healthy}, nil)
	d.orderRepo.EXPECT().GetByID(ctx, broken.OrderID).Return(nil, nil)
	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)
	d.approval.EXPECT().ResolveDispute(ctx, gomock.Any()).
		Return(&domain.Dispute{ID: healthy.ID, Status: domain.DisputeStatusResolved}, nil)
	d.auditRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.sink.EXPECT().Notify(ctx, string(domain.RoleAdmin), gomock.Any(), ports.SeverityWarning).Return(nil)

	// The missing order on the first dispute must not stop the second.
	require.NoError(t, d.svc.Sweep(ctx))
}

func TestGuardianService_Sweep_ResolveFailureDoesNotHaltSweep(t *testing.T) {
	d := setupGuardianService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	firstOrder := &domain.Order{ID: uuid.New(), Total: 10000}
	secondOrder := &domain.Order{ID: uuid.New(), Total: 20000}
	first := openDispute(firstOrder.ID, time.Now().UTC())
	second := openDispute(secondOrder.ID, time.Now().UTC())

	d.disputeRepo.EXPECT().ListOpen(ctx).Return([]domain.Dispute{first, second}, nil)
	d.orderRepo.EXPECT().GetByID(ctx, firstOrder.ID).Return(firstOrder, nil)
	d.orderRepo.EXPECT().GetByID(ctx, secondOrder.ID).Return(secondOrder, nil)
	d.approval.EXPECT().ResolveDispute(ctx, ports.ResolveDisputeRequest{
		DisputeID: first.ID,
		ActorRole: domain.RoleGuardian,
		Decision:  domain.DecisionGrantRefund,
	}).Return(nil, errors.New("seller insolvent"))
	d.approval.EXPECT().ResolveDispute(ctx, ports.ResolveDisputeRequest{
		DisputeID: second.ID,
		ActorRole: domain.RoleGuardian,
		Decision:  domain.DecisionGrantRefund,
	}).Return(&domain.Dispute{ID: second.ID, Status: domain.DisputeStatusResolved}, nil)
	d.auditRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.sink.EXPECT().Notify(ctx, string(domain.RoleAdmin), gomock.Any(), ports.SeverityWarning).Return(nil)

	require.NoError(t, d.svc.Sweep(ctx))
}

func TestGuardianService_Sweep_ListFailure(t *testing.T) {
	d := setupGuardianService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.disputeRepo.EXPECT().ListOpen(ctx).Return(nil, errors.New("db down"))

	err := d.svc.Sweep(ctx)
	assert.Error(t, err)
}
