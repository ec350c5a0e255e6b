package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homecare-ledger/internal/adapter/http/dto"
	"homecare-ledger/internal/adapter/http/middleware"
	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/internal/core/ports/mocks"
	"homecare-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonContext(t *testing.T, method, path string, payload any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// --- Wallet Handler Tests ---

func TestWalletHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletRepo := mocks.NewMockWalletRepository(ctrl)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), walletRepo)

	ownerID := uuid.New()
	walletRepo.EXPECT().GetByOwnerID(gomock.Any(), ownerID).Return(nil, nil)
	walletRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	c, w := jsonContext(t, http.MethodPost, "/api/v1/wallets", dto.CreateWalletRequest{
		OwnerID: ownerID.String(),
	})
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, ownerID.String(), data["owner_id"])
	assert.Equal(t, float64(0), data["balance"])
}

func TestWalletHandler_Create_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletRepo := mocks.NewMockWalletRepository(ctrl)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), walletRepo)

	ownerID := uuid.New()
	walletRepo.EXPECT().GetByOwnerID(gomock.Any(), ownerID).Return(&domain.Wallet{
		ID:      uuid.New(),
		OwnerID: ownerID,
	}, nil)

	c, w := jsonContext(t, http.MethodPost, "/api/v1/wallets", dto.CreateWalletRequest{
		OwnerID: ownerID.String(),
	})
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletHandler_GetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledgerSvc := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledgerSvc, mocks.NewMockWalletRepository(ctrl))

	ownerID := uuid.New()
	ledgerSvc.EXPECT().GetBalance(gomock.Any(), ownerID).Return(int64(125000), nil)

	c, w := jsonContext(t, http.MethodGet, "/api/v1/wallets/"+ownerID.String()+"/balance", nil)
	c.Params = gin.Params{{Key: "owner_id", Value: ownerID.String()}}
	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(125000), data["balance"])
}

func TestWalletHandler_GetBalance_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledgerSvc := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledgerSvc, mocks.NewMockWalletRepository(ctrl))

	ownerID := uuid.New()
	ledgerSvc.EXPECT().GetBalance(gomock.Any(), ownerID).Return(int64(0), apperror.ErrNotFound("wallet"))

	c, w := jsonContext(t, http.MethodGet, "/api/v1/wallets/"+ownerID.String()+"/balance", nil)
	c.Params = gin.Params{{Key: "owner_id", Value: ownerID.String()}}
	h.GetBalance(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Ledger Handler Tests ---

func TestLedgerHandler_AddTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledgerSvc := mocks.NewMockLedgerService(ctrl)
	h := NewLedgerHandler(ledgerSvc)

	ownerID := uuid.New()
	txID := uuid.New()
	ledgerSvc.EXPECT().AddTransaction(gomock.Any(), ports.AddTransactionRequest{
		OwnerID: ownerID,
		Kind:    domain.KindTopUp,
		Amount:  50000,
	}).Return(&domain.Transaction{
		ID:        txID,
		OwnerID:   ownerID,
		Kind:      domain.KindTopUp,
		Amount:    50000,
		Status:    domain.TransactionStatusSuccess,
		CreatedAt: time.Now().UTC(),
	}, nil)

	c, w := jsonContext(t, http.MethodPost, "/api/v1/ledger/transactions", dto.AddTransactionRequest{
		OwnerID: ownerID.String(),
		Kind:    "TOP_UP",
		Amount:  50000,
	})
	h.AddTransaction(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, txID.String(), data["id"])
	assert.Equal(t, "TOP_UP", data["kind"])
}

func TestLedgerHandler_AddTransaction_Insufficient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledgerSvc := mocks.NewMockLedgerService(ctrl)
	h := NewLedgerHandler(ledgerSvc)

	ledgerSvc.EXPECT().AddTransaction(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientBalance())

	c, w := jsonContext(t, http.MethodPost, "/api/v1/ledger/transactions", dto.AddTransactionRequest{
		OwnerID: uuid.NewString(),
		Kind:    "MARKETPLACE",
		Amount:  -99999,
	})
	h.AddTransaction(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

// --- Approval Handler Tests ---

func TestApprovalHandler_Submit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	approvalSvc := mocks.NewMockApprovalService(ctrl)
	h := NewApprovalHandler(approvalSvc, mocks.NewMockApprovalRequestRepository(ctrl))

	requesterID := uuid.New()
	now := time.Now().UTC()
	approvalSvc.EXPECT().Submit(gomock.Any(), ports.SubmitApprovalRequest{
		Kind:        domain.WorkflowOpex,
		RequesterID: requesterID,
		Branch:      "north",
		Amount:      75000,
	}).Return(&domain.ApprovalRequest{
		ID:          uuid.New(),
		Kind:        domain.WorkflowOpex,
		RequesterID: requesterID,
		Branch:      "north",
		OpexType:    domain.OpexTypeGeneral,
		Amount:      75000,
		Stage:       domain.StagePendingHRVerification,
		SubmittedAt: now,
		UpdatedAt:   now,
	}, nil)

	c, w := jsonContext(t, http.MethodPost, "/api/v1/approvals", dto.SubmitApprovalRequest{
		Kind:   "OPEX",
		Branch: "north",
		Amount: 75000,
	})
	c.Set(middleware.CtxActorID, requesterID)
	h.Submit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "PENDING_HR_VERIFICATION", data["stage"])
}

func TestApprovalHandler_Submit_NoActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewApprovalHandler(mocks.NewMockApprovalService(ctrl), mocks.NewMockApprovalRequestRepository(ctrl))

	c, w := jsonContext(t, http.MethodPost, "/api/v1/approvals", dto.SubmitApprovalRequest{
		Kind:   "OPEX",
		Amount: 75000,
	})
	h.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApprovalHandler_Decide(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	approvalSvc := mocks.NewMockApprovalService(ctrl)
	h := NewApprovalHandler(approvalSvc, mocks.NewMockApprovalRequestRepository(ctrl))

	requestID := uuid.New()
	actorID := uuid.New()
	now := time.Now().UTC()
	approvalSvc.EXPECT().Advance(gomock.Any(), ports.AdvanceRequest{
		RequestID: requestID,
		ActorID:   actorID,
		ActorRole: domain.RoleHR,
		Decision:  domain.DecisionApprove,
	}).Return(&domain.ApprovalRequest{
		ID:          requestID,
		Kind:        domain.WorkflowOpex,
		RequesterID: uuid.New(),
		Stage:       domain.StagePendingFinanceApproval,
		SubmittedAt: now,
		UpdatedAt:   now,
	}, nil)

	c, w := jsonContext(t, http.MethodPost, "/api/v1/approvals/"+requestID.String()+"/decision", dto.DecisionRequest{
		Decision: "APPROVE",
	})
	c.Params = gin.Params{{Key: "id", Value: requestID.String()}}
	c.Set(middleware.CtxActorID, actorID)
	c.Set(middleware.CtxActorRole, domain.RoleHR)
	h.Decide(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "PENDING_FINANCE_APPROVAL", data["stage"])
}

func TestApprovalHandler_Decide_WrongRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	approvalSvc := mocks.NewMockApprovalService(ctrl)
	h := NewApprovalHandler(approvalSvc, mocks.NewMockApprovalRequestRepository(ctrl))

	requestID := uuid.New()
	approvalSvc.EXPECT().Advance(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrUnauthorizedActor("HR"))

	c, w := jsonContext(t, http.MethodPost, "/api/v1/approvals/"+requestID.String()+"/decision", dto.DecisionRequest{
		Decision: "APPROVE",
	})
	c.Params = gin.Params{{Key: "id", Value: requestID.String()}}
	c.Set(middleware.CtxActorID, uuid.New())
	c.Set(middleware.CtxActorRole, domain.RoleEmployee)
	h.Decide(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApprovalHandler_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	approvalRepo := mocks.NewMockApprovalRequestRepository(ctrl)
	h := NewApprovalHandler(mocks.NewMockApprovalService(ctrl), approvalRepo)

	requestID := uuid.New()
	approvalRepo.EXPECT().GetByID(gomock.Any(), requestID).Return(nil, nil)

	c, w := jsonContext(t, http.MethodGet, "/api/v1/approvals/"+requestID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: requestID.String()}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApprovalHandler_ListPending_UnknownKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewApprovalHandler(mocks.NewMockApprovalService(ctrl), mocks.NewMockApprovalRequestRepository(ctrl))

	c, w := jsonContext(t, http.MethodGet, "/api/v1/approvals?kind=LOTTERY", nil)
	h.ListPending(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Dispute Handler Tests ---

func TestDisputeHandler_SubmitDispute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	approvalSvc := mocks.NewMockApprovalService(ctrl)
	h := NewDisputeHandler(approvalSvc, mocks.NewMockOrderRepository(ctrl), mocks.NewMockAuditRepository(ctrl))

	orderID := uuid.New()
	approvalSvc.EXPECT().SubmitDispute(gomock.Any(), ports.SubmitDisputeRequest{
		OrderID: orderID,
		Reason:  "item not delivered",
	}).Return(&domain.Dispute{
		ID:        uuid.New(),
		OrderID:   orderID,
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		Reason:    "item not delivered",
		Status:    domain.DisputeStatusOpen,
		CreatedAt: time.Now().UTC(),
	}, nil)

	c, w := jsonContext(t, http.MethodPost, "/api/v1/disputes", dto.SubmitDisputeRequest{
		OrderID: orderID.String(),
		Reason:  "item not delivered",
	})
	h.SubmitDispute(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "OPEN", data["status"])
}

func TestDisputeHandler_ResolveDispute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	approvalSvc := mocks.NewMockApprovalService(ctrl)
	h := NewDisputeHandler(approvalSvc, mocks.NewMockOrderRepository(ctrl), mocks.NewMockAuditRepository(ctrl))

	disputeID := uuid.New()
	method := domain.ResolutionAdmin
	decision := domain.DecisionGrantRefund
	resolvedAt := time.Now().UTC()
	approvalSvc.EXPECT().ResolveDispute(gomock.Any(), ports.ResolveDisputeRequest{
		DisputeID: disputeID,
		ActorRole: domain.RoleAdmin,
		Decision:  domain.DecisionGrantRefund,
	}).Return(&domain.Dispute{
		ID:               disputeID,
		OrderID:          uuid.New(),
		BuyerID:          uuid.New(),
		SellerID:         uuid.New(),
		Status:           domain.DisputeStatusResolved,
		ResolutionMethod: &method,
		Decision:         &decision,
		ResolvedAt:       &resolvedAt,
		CreatedAt:        time.Now().UTC(),
	}, nil)

	c, w := jsonContext(t, http.MethodPost, "/api/v1/disputes/"+disputeID.String()+"/resolve", dto.ResolveDisputeRequest{
		Decision: "GRANT_REFUND",
	})
	c.Params = gin.Params{{Key: "id", Value: disputeID.String()}}
	c.Set(middleware.CtxActorRole, domain.RoleAdmin)
	h.ResolveDispute(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "RESOLVED", data["status"])
	assert.Equal(t, "ADMIN", data["resolution_method"])
}
