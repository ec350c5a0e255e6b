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

// ApprovalHandler handles staged approval endpoints.
type ApprovalHandler struct {
	approvalSvc  ports.ApprovalService
	approvalRepo ports.ApprovalRequestRepository
}

// NewApprovalHandler creates a new ApprovalHandler.
func NewApprovalHandler(approvalSvc ports.ApprovalService, approvalRepo ports.ApprovalRequestRepository) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc, approvalRepo: approvalRepo}
}

// Submit handles POST /api/v1/approvals.
func (h *ApprovalHandler) Submit(c *gin.Context) {
	actorID, ok := c.Get(middleware.CtxActorID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SubmitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	result, err := h.approvalSvc.Submit(c.Request.Context(), ports.SubmitApprovalRequest{
		Kind:        domain.WorkflowKind(req.Kind),
		RequesterID: actorID.(uuid.UUID),
		Branch:      req.Branch,
		OpexType:    domain.OpexType(req.OpexType),
		Amount:      req.Amount,
		ReceiptRef:  req.ReceiptRef,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toApprovalResponse(result))
}

// Decide handles POST /api/v1/approvals/:id/decision.
func (h *ApprovalHandler) Decide(c *gin.Context) {
	actorID, okID := c.Get(middleware.CtxActorID)
	actorRole, okRole := c.Get(middleware.CtxActorRole)
	if !okID || !okRole {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid request id"))
		return
	}

	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	result, err := h.approvalSvc.Advance(c.Request.Context(), ports.AdvanceRequest{
		RequestID:       requestID,
		ActorID:         actorID.(uuid.UUID),
		ActorRole:       actorRole.(domain.Role),
		Decision:        domain.Decision(req.Decision),
		RejectionReason: req.RejectionReason,
		AllowanceAmount: req.AllowanceAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toApprovalResponse(result))
}

// Get handles GET /api/v1/approvals/:id.
func (h *ApprovalHandler) Get(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid request id"))
		return
	}

	result, err := h.approvalRepo.GetByID(c.Request.Context(), requestID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if result == nil {
		response.Error(c, apperror.ErrNotFound("approval request"))
		return
	}

	response.OK(c, toApprovalResponse(result))
}

// ListPending handles GET /api/v1/approvals?kind=&stage=.
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	kind := domain.WorkflowKind(c.Query("kind"))
	if _, ok := domain.Workflows[kind]; !ok {
		response.Error(c, apperror.ErrValidation("unknown workflow kind"))
		return
	}
	stage := domain.Stage(c.Query("stage"))

	results, err := h.approvalRepo.ListByStage(c.Request.Context(), kind, stage)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	items := make([]dto.ApprovalResponse, 0, len(results))
	for i := range results {
		items = append(items, toApprovalResponse(&results[i]))
	}
	response.OK(c, items)
}

func toApprovalResponse(r *domain.ApprovalRequest) dto.ApprovalResponse {
	return dto.ApprovalResponse{
		ID:              r.ID.String(),
		Kind:            string(r.Kind),
		RequesterID:     r.RequesterID.String(),
		Branch:          r.Branch,
		OpexType:        string(r.OpexType),
		Amount:          r.Amount,
		ReceiptRef:      r.ReceiptRef,
		Stage:           string(r.Stage),
		RejectionReason: r.RejectionReason,
		SubmittedAt:     r.SubmittedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
