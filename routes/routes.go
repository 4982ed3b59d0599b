package routes

import (
	"os"

	"github.com/Sreehari-776/AgentMarket/controllers"
	"github.com/Sreehari-776/AgentMarket/middleware"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every endpoint onto the router
func SetupRoutes(router *gin.Engine) {
	store := cookie.NewStore([]byte(os.Getenv("SESSION_SECRET")))
	router.Use(sessions.Sessions("agentmarket_session", store))

	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	router.GET("/health", func(c *gin.Context) {
		utils.Success(c, "OK", nil)
	})

	v1 := router.Group("/v1")

	// Public
	v1.POST("/auth/register", controllers.Register)
	v1.POST("/auth/login", controllers.Login)
	v1.GET("/agents/:id", controllers.GetAgent)
	v1.POST("/payment/webhook", controllers.HandlePaymentWebhook)

	// Authenticated users
	user := v1.Group("")
	user.Use(middleware.AuthMiddleware())
	{
		user.GET("/wallet", controllers.GetWallet)
		user.GET("/wallet/transactions", controllers.GetWalletTransactions)
		user.POST("/wallet/deposit", controllers.InitiateDeposit)
		user.POST("/wallet/deposit/verify", controllers.VerifyDeposit)
		user.POST("/wallet/withdraw", controllers.RequestWithdrawal)
		user.GET("/wallet/withdrawals", controllers.GetMyWithdrawals)

		user.POST("/points/daily-login", controllers.ClaimDailyLogin)
		user.GET("/points/history", controllers.GetPointsHistory)
		user.POST("/points/exchange", controllers.ExchangePoints)

		user.POST("/referral/register", controllers.RegisterReferral)
		user.GET("/referral", controllers.GetReferralInfo)

		user.POST("/agents", controllers.CreateAgent)

		user.POST("/orders", controllers.CreateOrder)
		user.GET("/orders", controllers.ListOrders)
		user.GET("/orders/:id", controllers.GetOrder)
		user.GET("/orders/:id/invoice", controllers.DownloadInvoice)
		user.POST("/orders/:id/complete", controllers.CompleteOrder)
		user.POST("/orders/:id/cancel", controllers.CancelOrder)
		user.POST("/orders/:id/dispute", controllers.DisputeOrder)
	}

	// Admin
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/withdrawals", controllers.AdminListWithdrawals)
		admin.POST("/withdrawals/:id/review", controllers.AdminReviewWithdrawal)
		admin.POST("/withdrawals/:id/process", controllers.AdminProcessWithdrawal)

		admin.GET("/exchanges", controllers.AdminListExchanges)
		admin.POST("/exchanges/:id/process", controllers.AdminProcessExchange)

		admin.GET("/commissions", controllers.AdminListCommissions)
		admin.POST("/commissions/:id/collect", controllers.AdminCollectCommission)

		admin.POST("/disputes/:id/resolve", controllers.AdminResolveDispute)

		admin.POST("/reconcile", controllers.AdminReconcile)
		admin.GET("/reports/ledger", controllers.AdminExportLedger)
	}
}
