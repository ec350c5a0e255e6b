package handler

import (
	"fmt"
	"strconv"
	"time"

	"homecare-ledger/internal/adapter/http/dto"
	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/pkg/apperror"
	"homecare-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	ledgerSvc  ports.LedgerService
	walletRepo ports.WalletRepository
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService, walletRepo ports.WalletRepository) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc, walletRepo: walletRepo}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid owner id"))
		return
	}

	existing, err := h.walletRepo.GetByOwnerID(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if existing != nil {
		response.Error(c, apperror.ErrValidation("wallet already exists for owner"))
		return
	}

	now := time.Now().UTC()
	w := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.walletRepo.Create(c.Request.Context(), w); err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	response.Created(c, toWalletResponse(w))
}

// GetBalance handles GET /api/v1/wallets/:owner_id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid owner id"))
		return
	}

	balance, err := h.ledgerSvc.GetBalance(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		OwnerID: ownerID.String(),
		Balance: balance,
	})
}

// ListTransactions handles GET /api/v1/wallets/:owner_id/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid owner id"))
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw, 100); err != nil {
			response.Error(c, apperror.ErrValidation("invalid limit"))
			return
		} else {
			limit = parsed
		}
	}

	transactions, err := h.ledgerSvc.ListTransactions(c.Request.Context(), ownerID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		items = append(items, toTransactionResponse(&transactions[i]))
	}
	response.OK(c, items)
}

// SetFrozen handles POST /api/v1/wallets/:owner_id/freeze.
func (h *WalletHandler) SetFrozen(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid owner id"))
		return
	}

	var req dto.FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	if err := h.walletRepo.SetFrozen(c.Request.Context(), ownerID, *req.Frozen); err != nil {
		response.Error(c, apperror.ErrNotFound("wallet"))
		return
	}

	w, err := h.walletRepo.GetByOwnerID(c.Request.Context(), ownerID)
	if err != nil || w == nil {
		response.Error(c, apperror.ErrNotFound("wallet"))
		return
	}
	response.OK(c, toWalletResponse(w))
}

func parsePositiveInt(raw string, max int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid positive integer: %q", raw)
	}
	if v > max {
		v = max
	}
	return v, nil
}

func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:       w.ID.String(),
		OwnerID:  w.OwnerID.String(),
		Balance:  w.Balance,
		IsFrozen: w.IsFrozen,
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          t.ID.String(),
		OwnerID:     t.OwnerID.String(),
		Kind:        string(t.Kind),
		Amount:      t.Amount,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.RelatedID != nil {
		s := t.RelatedID.String()
		resp.RelatedID = &s
	}
	return resp
}
