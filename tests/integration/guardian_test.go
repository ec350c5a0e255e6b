package integration

import (
	"context"
	"testing"
	"time"

	redisStorage "homecare-ledger/internal/adapter/storage/redis"
	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/service"
	"homecare-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// guardianFixture wires the guardian sweep against real ledger and approval
// services on in-memory storage, so a sweep moves actual balances.
type guardianFixture struct {
	guardian     *service.GuardianService
	approval     *service.ApprovalServiceImpl
	walletRepo   *inMemoryWalletRepo
	approvalRepo *inMemoryApprovalRepo
	disputeRepo  *inMemoryDisputeRepo
	orderRepo    *inMemoryOrderRepo
	auditRepo    *inMemoryAuditRepo
	redis        *miniredis.Miniredis
}

func newGuardianFixture(t *testing.T, policy service.GuardianPolicy) *guardianFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	sink := redisStorage.NewNotificationSink(rdb)

	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	approvalRepo := newInMemoryApprovalRepo()
	disputeRepo := newInMemoryDisputeRepo()
	orderRepo := newInMemoryOrderRepo()
	auditRepo := newInMemoryAuditRepo()

	log := logger.New("debug", false)
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, newInMemoryTransactor(), sink, log)
	approvalSvc := service.NewApprovalService(approvalRepo, disputeRepo, orderRepo, ledgerSvc, sink, log)
	guardianSvc := service.NewGuardianService(disputeRepo, orderRepo, auditRepo, approvalSvc, sink, policy, log)

	return &guardianFixture{
		guardian:     guardianSvc,
		approval:     approvalSvc,
		walletRepo:   walletRepo,
		approvalRepo: approvalRepo,
		disputeRepo:  disputeRepo,
		orderRepo:    orderRepo,
		auditRepo:    auditRepo,
		redis:        mr,
	}
}

func (f *guardianFixture) seedWallet(t *testing.T, ownerID uuid.UUID, balance int64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.walletRepo.Create(context.Background(), &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func (f *guardianFixture) seedDispute(t *testing.T, buyerID, sellerID uuid.UUID, total int64, openedAt time.Time) *domain.Dispute {
	t.Helper()
	ctx := context.Background()
	order := &domain.Order{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Total:     total,
		CreatedAt: openedAt,
	}
	require.NoError(t, f.orderRepo.Create(ctx, order))

	dispute := &domain.Dispute{
		ID:        uuid.New(),
		OrderID:   order.ID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Reason:    "service not delivered",
		Status:    domain.DisputeStatusOpen,
		CreatedAt: openedAt,
	}
	require.NoError(t, f.disputeRepo.Create(ctx, dispute))
	return dispute
}

func TestIntegrationGuardian_AutoResolveMovesBalances(t *testing.T) {
	f := newGuardianFixture(t, service.GuardianPolicy{
		AutoResolveThreshold: 50000,
		EscalationWindow:     7 * 24 * time.Hour,
	})
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	f.seedWallet(t, buyerID, 0)
	f.seedWallet(t, sellerID, 100000)
	dispute := f.seedDispute(t, buyerID, sellerID, 30000, time.Now().UTC())

	require.NoError(t, f.guardian.Sweep(ctx))

	resolved, err := f.disputeRepo.GetByID(ctx, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolutionMethod)
	assert.Equal(t, domain.ResolutionGuardian, *resolved.ResolutionMethod)

	buyer, err := f.walletRepo.GetByOwnerID(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), buyer.Balance)

	seller, err := f.walletRepo.GetByOwnerID(ctx, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(70000), seller.Balance)

	entries, err := f.auditRepo.ListByDispute(ctx, dispute.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditActionAutoResolve, entries[0].Action)
}

func TestIntegrationGuardian_SweepIsIdempotent(t *testing.T) {
	f := newGuardianFixture(t, service.GuardianPolicy{
		AutoResolveThreshold: 50000,
		EscalationWindow:     7 * 24 * time.Hour,
	})
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	f.seedWallet(t, buyerID, 0)
	f.seedWallet(t, sellerID, 100000)
	f.seedDispute(t, buyerID, sellerID, 30000, time.Now().UTC())

	require.NoError(t, f.guardian.Sweep(ctx))
	require.NoError(t, f.guardian.Sweep(ctx))

	// Only one refund: the second sweep no longer sees the dispute as open.
	buyer, err := f.walletRepo.GetByOwnerID(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), buyer.Balance)
}

func TestIntegrationGuardian_EscalatesStaleHighValueDispute(t *testing.T) {
	f := newGuardianFixture(t, service.GuardianPolicy{
		AutoResolveThreshold: 50000,
		EscalationWindow:     7 * 24 * time.Hour,
	})
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	f.seedWallet(t, buyerID, 0)
	f.seedWallet(t, sellerID, 500000)
	dispute := f.seedDispute(t, buyerID, sellerID, 200000, time.Now().UTC().Add(-10*24*time.Hour))

	require.NoError(t, f.guardian.Sweep(ctx))

	escalated, err := f.disputeRepo.GetByID(ctx, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusOpen, escalated.Status)
	require.NotNil(t, escalated.EscalatedAt)

	// No balances moved
	seller, err := f.walletRepo.GetByOwnerID(ctx, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), seller.Balance)

	// A second sweep does not escalate again
	firstEscalation := *escalated.EscalatedAt
	require.NoError(t, f.guardian.Sweep(ctx))
	again, err := f.disputeRepo.GetByID(ctx, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, firstEscalation, *again.EscalatedAt)

	entries, err := f.auditRepo.ListByDispute(ctx, dispute.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditActionEscalate, entries[0].Action)
}

func TestIntegrationGuardian_InsolventSellerLeavesDisputeOpen(t *testing.T) {
	f := newGuardianFixture(t, service.GuardianPolicy{
		AutoResolveThreshold: 50000,
		EscalationWindow:     7 * 24 * time.Hour,
	})
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	f.seedWallet(t, buyerID, 0)
	f.seedWallet(t, sellerID, 10000)
	dispute := f.seedDispute(t, buyerID, sellerID, 30000, time.Now().UTC())

	require.NoError(t, f.guardian.Sweep(ctx))

	// Refund failed: both-or-neither means no partial movement anywhere.
	still, err := f.disputeRepo.GetByID(ctx, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusOpen, still.Status)

	buyer, err := f.walletRepo.GetByOwnerID(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), buyer.Balance)

	seller, err := f.walletRepo.GetByOwnerID(ctx, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), seller.Balance)
}
