package handler

import (
	"homecare-ledger/internal/adapter/http/dto"
	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/pkg/apperror"
	"homecare-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles administrative ledger endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// AddTransaction handles POST /api/v1/ledger/transactions.
func (h *LedgerHandler) AddTransaction(c *gin.Context) {
	var req dto.AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid owner id"))
		return
	}

	var relatedID *uuid.UUID
	if req.RelatedID != nil {
		parsed, err := uuid.Parse(*req.RelatedID)
		if err != nil {
			response.Error(c, apperror.ErrValidation("invalid related id"))
			return
		}
		relatedID = &parsed
	}

	result, err := h.ledgerSvc.AddTransaction(c.Request.Context(), ports.AddTransactionRequest{
		OwnerID:     ownerID,
		Kind:        domain.TransactionKind(req.Kind),
		Amount:      req.Amount,
		Description: req.Description,
		RelatedID:   relatedID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(result))
}

// ReverseTransaction handles POST /api/v1/ledger/transactions/:id/reverse.
func (h *LedgerHandler) ReverseTransaction(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid transaction id"))
		return
	}

	result, err := h.ledgerSvc.ReverseTransaction(c.Request.Context(), transactionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(result))
}

// TransferProfitToCash handles POST /api/v1/ledger/admin/profit-transfer.
func (h *LedgerHandler) TransferProfitToCash(c *gin.Context) {
	var req dto.AdminTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	if err := h.ledgerSvc.TransferProfitToCash(c.Request.Context(), req.Amount); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"transferred": req.Amount})
}

// RecordTaxPayment handles POST /api/v1/ledger/admin/tax-payments.
func (h *LedgerHandler) RecordTaxPayment(c *gin.Context) {
	var req dto.AdminExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	if err := h.ledgerSvc.RecordTaxPayment(c.Request.Context(), req.Amount, req.Description); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"recorded": req.Amount})
}

// RecordOperationalExpense handles POST /api/v1/ledger/admin/expenses.
func (h *LedgerHandler) RecordOperationalExpense(c *gin.Context) {
	var req dto.AdminExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	if err := h.ledgerSvc.RecordOperationalExpense(c.Request.Context(), req.Amount, req.Description); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"recorded": req.Amount})
}
