package service

import (
	"context"
	"fmt"
	"time"

	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const defaultHistoryLimit = 50

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	sink       ports.NotificationSink
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	sink ports.NotificationSink,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		sink:       sink,
		log:        log,
	}
}

// AddTransaction validates and commits a single ledger mutation: one appended
// transaction row plus the matching balance delta, inside one database
// transaction against a pessimistically locked wallet.
func (s *LedgerServiceImpl) AddTransaction(ctx context.Context, req ports.AddTransactionRequest) (*domain.Transaction, error) {
	if req.Amount == 0 {
		return nil, apperror.ErrValidation("amount must be non-zero")
	}
	if !req.Kind.Valid() {
		return nil, apperror.ErrValidation(fmt.Sprintf("unrecognized transaction kind: %s", req.Kind))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.applyLeg(ctx, dbTx, req)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("owner_id", req.OwnerID.String()).
		Str("kind", string(req.Kind)).
		Int64("amount", req.Amount).
		Msg("ledger transaction committed")

	return txn, nil
}

// applyLeg validates one mutation against a locked wallet, appends the row and
// applies the delta. It runs inside the caller's database transaction so that
// compound operations commit all legs or none.
func (s *LedgerServiceImpl) applyLeg(ctx context.Context, dbTx pgx.Tx, req ports.AddTransactionRequest) (*domain.Transaction, error) {
	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, dbTx, req.OwnerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	if req.Amount < 0 {
		if wallet.IsFrozen {
			return nil, apperror.ErrFrozenWallet()
		}
		if !domain.IsAdminOwner(req.OwnerID) && wallet.Balance+req.Amount < 0 {
			s.notify(ctx, req.OwnerID.String(),
				fmt.Sprintf("Transaction of %d rejected: insufficient balance", req.Amount),
				ports.SeverityWarning)
			return nil, apperror.ErrInsufficientBalance()
		}
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		OwnerID:     req.OwnerID,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: req.Description,
		Status:      domain.TransactionStatusSuccess,
		RelatedID:   req.RelatedID,
		CreatedAt:   now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance+req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	return txn, nil
}

// ReverseTransaction appends a new transaction negating the original's amount.
// The original row is untouched. Reversal is best effort: it fails through the
// normal insufficient-balance path when the owner has already spent the funds.
func (s *LedgerServiceImpl) ReverseTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	orig, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find original tx: %w", err))
	}
	if orig == nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// The duplicate check runs behind the wallet row lock: concurrent
	// reversals of the same transaction serialize here and the loser sees
	// the winner's committed reversal row.
	if _, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, dbTx, orig.OwnerID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	exists, err := s.txRepo.ReversalExists(ctx, dbTx, orig.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check reversal exists: %w", err))
	}
	if exists {
		return nil, apperror.ErrAlreadyReversed()
	}

	txn, err := s.applyLeg(ctx, dbTx, ports.AddTransactionRequest{
		OwnerID:     orig.OwnerID,
		Kind:        domain.KindReversal,
		Amount:      -orig.Amount,
		Description: fmt.Sprintf("Reversal of %s", orig.ID),
		RelatedID:   &orig.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("original_tx_id", orig.ID.String()).
		Int64("amount", txn.Amount).
		Msg("transaction reversed")

	return txn, nil
}

// RefundOrder disburses a granted dispute refund: the buyer is credited the
// order total and the seller debited the same amount, atomically. Wallets are
// locked in a consistent order to prevent deadlocks between concurrent refunds.
func (s *LedgerServiceImpl) RefundOrder(ctx context.Context, req ports.RefundOrderRequest) error {
	if req.Amount <= 0 {
		return apperror.ErrValidation("refund amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Seller debit first so an insolvent or frozen seller fails the whole
	// disbursement before the buyer leg exists.
	legs := []ports.AddTransactionRequest{
		{
			OwnerID:     req.SellerID,
			Kind:        domain.KindReversal,
			Amount:      -req.Amount,
			Description: fmt.Sprintf("Dispute %s: order %s proceeds reversed", req.DisputeID, req.OrderID),
		},
		{
			OwnerID:     req.BuyerID,
			Kind:        domain.KindRefund,
			Amount:      req.Amount,
			Description: fmt.Sprintf("Dispute %s: refund for order %s", req.DisputeID, req.OrderID),
		},
	}
	// Lock in UUID order regardless of leg order.
	if req.BuyerID.String() < req.SellerID.String() {
		if _, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, dbTx, req.BuyerID); err != nil {
			return apperror.InternalError(fmt.Errorf("lock buyer wallet: %w", err))
		}
	}

	var sellerTx *domain.Transaction
	for i := range legs {
		if i == 1 {
			legs[i].RelatedID = &sellerTx.ID
		}
		txn, err := s.applyLeg(ctx, dbTx, legs[i])
		if err != nil {
			return err
		}
		if i == 0 {
			sellerTx = txn
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("dispute_id", req.DisputeID.String()).
		Str("order_id", req.OrderID.String()).
		Int64("amount", req.Amount).
		Msg("dispute refund disbursed")

	return nil
}

// TransferProfitToCash moves accumulated profit into the cash sub-wallet.
// Both legs carry Internal Transfer audit rows and commit atomically.
func (s *LedgerServiceImpl) TransferProfitToCash(ctx context.Context, amount int64) error {
	return s.adminTransfer(ctx, adminTransferSpec{
		debitOwner:  domain.AdminWalletProfit,
		creditOwner: &domain.AdminWalletCash,
		kind:        domain.KindInternalTransfer,
		amount:      amount,
		description: "Profit transferred to cash",
	})
}

// RecordTaxPayment settles accrued tax out of the tax sub-wallet. The
// counterparty is external, so only the platform-side debit leg is recorded.
func (s *LedgerServiceImpl) RecordTaxPayment(ctx context.Context, amount int64, description string) error {
	return s.adminTransfer(ctx, adminTransferSpec{
		debitOwner:  domain.AdminWalletTax,
		kind:        domain.KindTax,
		amount:      amount,
		description: description,
	})
}

// RecordOperationalExpense records an operational spend against the cash
// sub-wallet.
func (s *LedgerServiceImpl) RecordOperationalExpense(ctx context.Context, amount int64, description string) error {
	return s.adminTransfer(ctx, adminTransferSpec{
		debitOwner:  domain.AdminWalletCash,
		kind:        domain.KindOperationalExpense,
		amount:      amount,
		description: description,
	})
}

type adminTransferSpec struct {
	debitOwner  uuid.UUID
	creditOwner *uuid.UUID
	kind        domain.TransactionKind
	amount      int64
	description string
}

func (s *LedgerServiceImpl) adminTransfer(ctx context.Context, spec adminTransferSpec) error {
	if spec.amount <= 0 {
		return apperror.ErrValidation("transfer amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	debit, err := s.applyLeg(ctx, dbTx, ports.AddTransactionRequest{
		OwnerID:     spec.debitOwner,
		Kind:        spec.kind,
		Amount:      -spec.amount,
		Description: spec.description,
	})
	if err != nil {
		return err
	}

	if spec.creditOwner != nil {
		if _, err := s.applyLeg(ctx, dbTx, ports.AddTransactionRequest{
			OwnerID:     *spec.creditOwner,
			Kind:        spec.kind,
			Amount:      spec.amount,
			Description: spec.description,
			RelatedID:   &debit.ID,
		}); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("debit_owner", spec.debitOwner.String()).
		Str("kind", string(spec.kind)).
		Int64("amount", spec.amount).
		Msg("administrative transfer committed")

	return nil
}

// GetBalance returns the current wallet balance for an owner.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrNotFound("wallet")
	}
	return wallet.Balance, nil
}

// ListTransactions returns the owner's transaction history, newest first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	txns, err := s.txRepo.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// notify delivers best-effort: sink failures are logged, never propagated.
func (s *LedgerServiceImpl) notify(ctx context.Context, recipient, message string, severity ports.Severity) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(ctx, recipient, message, severity); err != nil {
		s.log.Warn().Err(err).Str("recipient", recipient).Msg("notification delivery failed")
	}
}
