package handler

import (
	"homecare-ledger/internal/adapter/http/middleware"
	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	ApprovalSvc    ports.ApprovalService
	TokenSvc       ports.TokenService
	WalletRepo     ports.WalletRepository
	ApprovalRepo   ports.ApprovalRequestRepository
	OrderRepo      ports.OrderRepository
	AuditRepo      ports.AuditRepository
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.WalletRepo)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)
	approvalHandler := NewApprovalHandler(deps.ApprovalSvc, deps.ApprovalRepo)
	disputeHandler := NewDisputeHandler(deps.ApprovalSvc, deps.OrderRepo, deps.AuditRepo)

	v1 := r.Group("/api/v1")

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.POST("", adminOnly, walletHandler.Create)
		wallets.GET("/:owner_id/balance", walletHandler.GetBalance)
		wallets.GET("/:owner_id/transactions", walletHandler.ListTransactions)
		wallets.POST("/:owner_id/freeze", adminOnly, walletHandler.SetFrozen)
	}

	ledger := v1.Group("/ledger", jwtAuth, adminOnly)
	{
		ledger.POST("/transactions", ledgerHandler.AddTransaction)
		ledger.POST("/transactions/:id/reverse", ledgerHandler.ReverseTransaction)
		ledger.POST("/admin/profit-transfer", ledgerHandler.TransferProfitToCash)
		ledger.POST("/admin/tax-payments", ledgerHandler.RecordTaxPayment)
		ledger.POST("/admin/expenses", ledgerHandler.RecordOperationalExpense)
	}

	approvals := v1.Group("/approvals", jwtAuth)
	{
		approvals.POST("", approvalHandler.Submit)
		approvals.GET("", approvalHandler.ListPending)
		approvals.GET("/:id", approvalHandler.Get)
		approvals.POST("/:id/decision", approvalHandler.Decide)
	}

	orders := v1.Group("/orders", jwtAuth)
	{
		orders.POST("", disputeHandler.CreateOrder)
	}

	disputes := v1.Group("/disputes", jwtAuth)
	{
		disputes.POST("", disputeHandler.SubmitDispute)
		disputes.POST("/:id/resolve", adminOnly, disputeHandler.ResolveDispute)
		disputes.GET("/:id/audit", adminOnly, disputeHandler.AuditTrail)
	}

	return r
}
