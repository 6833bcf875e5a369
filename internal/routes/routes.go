// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"tutorpay/internal/config"
	"tutorpay/internal/gateway"
	"tutorpay/internal/handlers"
	"tutorpay/internal/middleware"
	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/services/auth"
	"tutorpay/internal/services/booking"
	"tutorpay/internal/services/dashboard"
	"tutorpay/internal/services/deposit"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/payout"
	"tutorpay/internal/services/refund"
	"tutorpay/internal/services/wallet"
	"tutorpay/internal/services/withdrawal"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Services exposes the services the background scheduler drives.
type Services struct {
	Deposits deposit.Service
	Bookings booking.Service
	Payouts  payout.Service
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB) *Services {
	// Initialize repositories
	repos := repositories.NewRepos(db)
	txManager := repositories.NewTxManager(db)
	userRepo := repositories.NewUserRepository(db, repositories.CacheService)

	// Initialize auth service and handler
	authService := auth.NewService(userRepo)
	authHandler := handlers.NewAuthHandler(authService)
	authMW := middleware.NewAuthMiddleware(authService)

	// Ledger and notification plumbing
	notifier := notification.NewOutboxSink(repos.Notifications)
	var walletCache wallet.Cache
	if repositories.CacheService != nil {
		walletCache = repositories.CacheService
	}
	walletService := wallet.NewService(repos.Wallets, walletCache, wallet.NewPrometheusCollector())

	// Gateway adapters
	vnpay := gateway.NewVNPay(gateway.VNPayConfigFromEnv())
	cards := gateway.NewStripeTokenizer()

	// Domain services
	systemOwnerID := config.SystemWalletOwnerID()
	depositService := deposit.NewService(repos.Deposits, txManager, walletService, vnpay, cards, notifier)
	withdrawalService := withdrawal.NewService(repos.Withdrawals, repos.BankAccounts, txManager, walletService, notifier)
	bookingService := booking.NewService(repos.Bookings, repos.Schedules, txManager, walletService, notifier)
	payoutService := payout.NewService(repos.Payouts, txManager, walletService, notifier, payout.ConfigFromEnv())
	refundService := refund.NewService(repos.Refunds, txManager, walletService, notifier, systemOwnerID)
	dashboardService := dashboard.NewService(repos.Wallets, repos.Payouts, txManager, walletService, systemOwnerID)

	// Handlers
	walletHandler := handlers.NewWalletHandler(walletService)
	depositHandler := handlers.NewDepositHandler(depositService, vnpay)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	refundHandler := handlers.NewRefundHandler(refundService)
	adminHandler := handlers.NewAdminHandler(dashboardService, depositService, payoutService)

	// Health and metrics at the root
	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Gateway callbacks are authenticated by signature, not by JWT.
	app.Get("/webhooks/vnpay-ipn", depositHandler.VNPayIPN)

	// Public routes
	api := app.Group("/api")
	api.Post("/login", authHandler.LoginUser)
	api.Post("/refresh", authHandler.RefreshToken)

	// User routes with authentication
	authenticated := api.Group("/", authMW.Handler)
	authenticated.Post("/logout", authHandler.LogoutUser)
	authenticated.Post("/change-password", middleware.HasPermission(models.PermissionChangePassword), authHandler.ChangePassword)

	// Wallet routes
	walletGroup := authenticated.Group("/wallet")
	walletGroup.Get("/", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetWallet)
	walletGroup.Get("/transactions", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetTransactionHistory)

	// Deposit routes
	deposits := authenticated.Group("/deposits")
	deposits.Post("/", middleware.HasPermission(models.PermissionWalletWrite), depositHandler.CreateDeposit)
	deposits.Post("/card", middleware.HasPermission(models.PermissionWalletWrite), depositHandler.CreateCardDeposit)
	deposits.Post("/:id/cancel", middleware.HasPermission(models.PermissionWalletWrite), depositHandler.CancelDeposit)
	deposits.Get("/", middleware.HasPermission(models.PermissionWalletRead), depositHandler.GetDepositHistory)

	// Withdrawal routes
	withdrawals := authenticated.Group("/withdrawals")
	withdrawals.Post("/", middleware.HasPermission(models.PermissionWalletWrite), withdrawalHandler.CreateWithdrawal)
	withdrawals.Get("/", middleware.HasPermission(models.PermissionWalletRead), withdrawalHandler.GetWithdrawalHistory)

	// Booking routes
	bookings := authenticated.Group("/bookings")
	bookings.Get("/", middleware.HasPermission(models.PermissionBookingRead), bookingHandler.ListBookings)
	bookings.Post("/:id/pay", middleware.HasPermission(models.PermissionBookingWrite), bookingHandler.PayBooking)
	bookings.Post("/:id/cancel", middleware.HasPermission(models.PermissionBookingWrite), bookingHandler.CancelBooking)
	bookings.Get("/:id/cancel-preview", middleware.HasPermission(models.PermissionBookingRead), bookingHandler.GetCancelPreview)

	// Schedule routes
	schedules := authenticated.Group("/schedules")
	schedules.Post("/:id/studied", middleware.HasPermission(models.PermissionBookingWrite), bookingHandler.MarkScheduleStudied)
	schedules.Post("/:id/confirm", middleware.HasPermission(models.PermissionBookingWrite), payoutHandler.ConfirmSchedule)
	schedules.Post("/:id/report", middleware.HasPermission(models.PermissionBookingWrite), payoutHandler.MarkReported)

	// Payout routes
	authenticated.Get("/payouts", middleware.HasPermission(models.PermissionPayoutRead), payoutHandler.ListPayouts)

	// Refund routes
	refunds := authenticated.Group("/refunds")
	refunds.Get("/policies", refundHandler.ListPolicies)
	refunds.Post("/requests", middleware.HasPermission(models.PermissionBookingWrite), refundHandler.RequestRefund)

	// Admin routes (require AdminAuthMiddleware)
	admin := authenticated.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Get("/dashboard", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.GetDashboard)
	admin.Get("/withdrawals/pending", middleware.HasPermission(models.PermissionReadAdmin), withdrawalHandler.GetPendingWithdrawals)
	admin.Get("/refunds/requests", middleware.HasPermission(models.PermissionReadAdmin), refundHandler.ListPendingRequests)
	admin.Post("/refunds/requests/:id/approve", middleware.HasPermission(models.PermissionWriteAdmin), refundHandler.ApproveRefund)
	admin.Post("/refunds/requests/:id/reject", middleware.HasPermission(models.PermissionWriteAdmin), refundHandler.RejectRefund)
	admin.Post("/deposits/cleanup", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.CleanupExpiredDeposits)
	admin.Post("/schedules/:id/complete", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.CompleteScheduleOverride)
	admin.Post("/schedules/:id/resolve-report", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.ResolveReport)
	admin.Post("/payouts/process", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.ProcessDuePayouts)

	return &Services{
		Deposits: depositService,
		Bookings: bookingService,
		Payouts:  payoutService,
	}
}
