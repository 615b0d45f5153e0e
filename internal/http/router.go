package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"nyra.shop/app/internal/config"
	"nyra.shop/app/internal/http/handlers"
	"nyra.shop/app/internal/http/middleware"
	"nyra.shop/app/internal/mailer"
	"nyra.shop/app/internal/modules/email"
	"nyra.shop/app/internal/modules/payments"
	"nyra.shop/app/pkg/metrics"
)

const sessionCookieName = "nyra_session"

func NewRouter(logger *slog.Logger, db *gorm.DB, rdb *redis.Client, cfg config.Config) *gin.Engine {
	gw := payments.NewRazorpayGateway(cfg.Razorpay)

	var sender mailer.Service
	if cfg.EmailAPIURL != "" && cfg.EmailAPIKey != "" {
		sender = mailer.NewAPIMailer(cfg.EmailAPIURL, cfg.EmailAPIKey)
	} else {
		sender = mailer.NewSMTPMailer(cfg.SMTP)
	}
	confirmations := email.NewConfirmations(sender, cfg.EmailFrom, cfg.EmailFromName)
	confirmations.SetLogger(logger)

	rec := payments.NewReconciler(db, cfg.Razorpay.KeySecret, confirmations)
	rec.SetLogger(logger)

	checkout := payments.NewCheckoutService(db, gw, cfg.FreeShippingThresholdPaise, cfg.ShippingFlatPaise)
	checkout.SetLogger(logger)

	webhooks := payments.NewWebhookService(db, rec)
	webhooks.SetLogger(logger)

	ph := handlers.NewPaymentsHandler(checkout, rec, logger)
	wh := handlers.NewWebhookHandler(webhooks, cfg.Razorpay.WebhookSecret, logger)
	oh := handlers.NewOrdersHandler(db, logger)

	m := metrics.NewServerMetrics("web")

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.ErrorHandler(logger),
		middleware.Metrics(m),
		middleware.SessionMiddleware(db, sessionCookieName),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	pay := api.Group("/payments/razorpay")
	pay.POST("/create-order",
		middleware.RateLimit(rdb, logger, "razorpay_create_order", 10, time.Minute),
		middleware.RequireAuth(),
		ph.CreateOrder,
	)
	pay.POST("/verify",
		middleware.RateLimit(rdb, logger, "razorpay_verify", 20, time.Minute),
		middleware.RequireAuth(),
		ph.Verify,
	)

	// Webhooks authenticate with the body signature, never a session.
	api.POST("/webhooks/razorpay", wh.Razorpay)

	ord := api.Group("/orders", middleware.RequireAuth())
	ord.GET("", oh.List)
	ord.GET("/:id", oh.Detail)

	return r
}
