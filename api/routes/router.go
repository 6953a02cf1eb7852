package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopsphere/shopsphere-backend/api/controllers"
	"github.com/shopsphere/shopsphere-backend/api/middleware"
	"github.com/shopsphere/shopsphere-backend/internal/agents"
	"github.com/shopsphere/shopsphere-backend/internal/assignment"
	checkoutsvc "github.com/shopsphere/shopsphere-backend/internal/checkout"
	"github.com/shopsphere/shopsphere-backend/internal/commission"
	"github.com/shopsphere/shopsphere-backend/internal/delivery"
	"github.com/shopsphere/shopsphere-backend/internal/ledger"
	"github.com/shopsphere/shopsphere-backend/internal/notifications"
	"github.com/shopsphere/shopsphere-backend/internal/orders"
	"github.com/shopsphere/shopsphere-backend/internal/wallet"
	"github.com/shopsphere/shopsphere-backend/pkg/config"
	"github.com/shopsphere/shopsphere-backend/pkg/db"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/metrics"
	pkgredis "github.com/shopsphere/shopsphere-backend/pkg/redis"
)

// Services groups the wired domain services the router exposes.
type Services struct {
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Delivery      delivery.Service
	Assignment    assignment.Service
	Agents        agents.Service
	Commissions   commission.Service
	Ledger        ledger.Service
	Wallets       wallet.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *pkgredis.Client,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(svcs.Wallets, logg))
			r.Get("/statement", controllers.WalletStatement(svcs.Wallets, logg))
			r.With(middleware.RequireRole(enums.UserRoleVendor, logg)).Post("/withdraw", controllers.VendorWithdraw(svcs.Ledger, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleCustomer, logg))
			r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MyOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.MyOrderDetail(svcs.Orders, logg))
				r.Get("/track/{orderNumber}", controllers.TrackOrder(svcs.Delivery, logg))
			})
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleVendor, logg))
			r.Get("/items", controllers.VendorOrderItems(svcs.Orders, logg))
			r.Post("/orders/{orderId}/action", controllers.VendorOrderAction(svcs.Orders, logg))
			r.Get("/ledger", controllers.VendorLedger(svcs.Ledger, logg))
			r.Get("/commission-info", controllers.VendorCommissionInfo(svcs.Commissions, logg))
		})

		r.Route("/agent", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAgent, logg))
			r.Route("/deliveries", func(r chi.Router) {
				r.Get("/", controllers.AgentAssignments(svcs.Delivery, logg))
				r.Post("/{assignmentId}/accept", controllers.AgentAccept(svcs.Delivery, logg))
				r.Post("/{assignmentId}/pickup", controllers.AgentPickup(svcs.Delivery, logg))
				r.Post("/{assignmentId}/transit", controllers.AgentStartTransit(svcs.Delivery, logg))
				r.Post("/{assignmentId}/nearby", controllers.AgentNearby(svcs.Delivery, logg))
				r.Post("/{assignmentId}/verify-otp", controllers.AgentVerifyOTP(svcs.Delivery, logg))
				r.Post("/{assignmentId}/fail", controllers.AgentFail(svcs.Delivery, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Route("/agents", func(r chi.Router) {
				r.Get("/", controllers.AdminListAgents(svcs.Agents, logg))
				r.Get("/{agentId}", controllers.AdminAgentDetail(svcs.Agents, logg))
				r.Get("/{agentId}/history", controllers.AdminAgentHistory(svcs.Agents, logg))
				r.Post("/{agentId}/approve", controllers.AdminApproveAgent(svcs.Agents, logg))
				r.Post("/{agentId}/reject", controllers.AdminRejectAgent(svcs.Agents, logg))
				r.Post("/{agentId}/block", controllers.AdminBlockAgent(svcs.Agents, logg))
				r.Post("/{agentId}/unblock", controllers.AdminUnblockAgent(svcs.Agents, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/unassigned", controllers.AdminUnassignedOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(svcs.Orders, logg))
				r.Post("/{orderId}/assign", controllers.AdminAssignOrder(svcs.Assignment, logg))
			})
			r.Route("/settlements", func(r chi.Router) {
				r.Get("/orders/{orderId}/pending", controllers.AdminPendingSettlements(svcs.Ledger, logg))
				r.Post("/items/{itemId}/settle", controllers.AdminSettleItem(svcs.Ledger, logg))
			})
			r.Route("/commissions", func(r chi.Router) {
				r.Get("/", controllers.AdminListCommissions(svcs.Commissions, logg))
				r.Post("/", controllers.AdminUpsertCommission(svcs.Commissions, logg))
				r.Delete("/{settingId}", controllers.AdminDeactivateCommission(svcs.Commissions, logg))
			})
		})
	})

	return r
}
