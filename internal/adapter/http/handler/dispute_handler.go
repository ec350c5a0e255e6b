package handler

import (
	"time"

	"homecare-ledger/internal/adapter/http/dto"
	"homecare-ledger/internal/adapter/http/middleware"
	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/pkg/apperror"
	"homecare-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DisputeHandler handles order and dispute endpoints.
type DisputeHandler struct {
	approvalSvc ports.ApprovalService
	orderRepo   ports.OrderRepository
	auditRepo   ports.AuditRepository
}

// NewDisputeHandler creates a new DisputeHandler.
func NewDisputeHandler(approvalSvc ports.ApprovalService, orderRepo ports.OrderRepository, auditRepo ports.AuditRepository) *DisputeHandler {
	return &DisputeHandler{approvalSvc: approvalSvc, orderRepo: orderRepo, auditRepo: auditRepo}
}

// CreateOrder handles POST /api/v1/orders.
func (h *DisputeHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid buyer id"))
		return
	}
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid seller id"))
		return
	}

	order := &domain.Order{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Total:     req.Total,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.orderRepo.Create(c.Request.Context(), order); err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	response.Created(c, dto.OrderResponse{
		ID:        order.ID.String(),
		BuyerID:   order.BuyerID.String(),
		SellerID:  order.SellerID.String(),
		Total:     order.Total,
		CreatedAt: order.CreatedAt.Format(time.RFC3339),
	})
}

// SubmitDispute handles POST /api/v1/disputes.
func (h *DisputeHandler) SubmitDispute(c *gin.Context) {
	var req dto.SubmitDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid order id"))
		return
	}

	dispute, err := h.approvalSvc.SubmitDispute(c.Request.Context(), ports.SubmitDisputeRequest{
		OrderID: orderID,
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toDisputeResponse(dispute))
}

// ResolveDispute handles POST /api/v1/disputes/:id/resolve.
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	actorRole, ok := c.Get(middleware.CtxActorRole)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid dispute id"))
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	dispute, err := h.approvalSvc.ResolveDispute(c.Request.Context(), ports.ResolveDisputeRequest{
		DisputeID: disputeID,
		ActorRole: actorRole.(domain.Role),
		Decision:  domain.Decision(req.Decision),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toDisputeResponse(dispute))
}

// AuditTrail handles GET /api/v1/disputes/:id/audit.
func (h *DisputeHandler) AuditTrail(c *gin.Context) {
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid dispute id"))
		return
	}

	entries, err := h.auditRepo.ListByDispute(c.Request.Context(), disputeID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:        e.ID.String(),
			DisputeID: e.DisputeID.String(),
			Action:    string(e.Action),
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	response.OK(c, items)
}

func toDisputeResponse(d *domain.Dispute) dto.DisputeResponse {
	resp := dto.DisputeResponse{
		ID:        d.ID.String(),
		OrderID:   d.OrderID.String(),
		BuyerID:   d.BuyerID.String(),
		SellerID:  d.SellerID.String(),
		Reason:    d.Reason,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.ResolutionMethod != nil {
		s := string(*d.ResolutionMethod)
		resp.ResolutionMethod = &s
	}
	if d.Decision != nil {
		s := string(*d.Decision)
		resp.Decision = &s
	}
	if d.EscalatedAt != nil {
		s := d.EscalatedAt.UTC().Format(time.RFC3339)
		resp.EscalatedAt = &s
	}
	if d.ResolvedAt != nil {
		s := d.ResolvedAt.UTC().Format(time.RFC3339)
		resp.ResolvedAt = &s
	}
	return resp
}
