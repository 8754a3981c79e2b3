package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/preenhq/payments-service/internal/app"
	"github.com/preenhq/payments-service/internal/config"
	"github.com/preenhq/payments-service/internal/constants"
	"github.com/preenhq/payments-service/internal/controllers"
	"github.com/preenhq/payments-service/internal/middleware"
	"github.com/preenhq/payments-service/internal/repositories"
	"github.com/preenhq/payments-service/internal/routes"
	"github.com/preenhq/payments-service/internal/services"
	"github.com/preenhq/payments-service/internal/tracker"
	"github.com/preenhq/payments-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize payments-service:", err)
	}
	defer application.Close()

	// Repositories
	linkRepo := repositories.NewPaymentLinkRepository(application.DB)
	txnRepo := repositories.NewPaymentTransactionRepository(application.DB)
	recipientRepo := repositories.NewSplitRecipientRepository(application.DB)
	disbursementRepo := repositories.NewSplitDisbursementRepository(application.DB)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedTestData(context.Background(), linkRepo, recipientRepo); err != nil {
			utils.Logger.Fatal("Failed to seed test data:", err)
		}
	}

	// Services
	trk := tracker.New(disbursementRepo)
	notificationService := services.NewNotificationService(cfg)
	linkService := services.NewPaymentLinkService(linkRepo, txnRepo)
	splitConfigService := services.NewSplitConfigService(recipientRepo)
	paymentEventService := services.NewPaymentEventService(linkRepo, txnRepo, recipientRepo, disbursementRepo, trk, notificationService)
	// TODO: resolve the owner's real email through the account service once
	// its internal lookup endpoint ships; failure alerts go to support until then.
	disbursementService := services.NewDisbursementService(
		disbursementRepo, txnRepo, linkRepo, trk, notificationService,
		func(ctx context.Context, ownerUserID uuid.UUID) (string, error) {
			return constants.SupportTeamEmail, nil
		},
	)
	summaryService := services.NewSummaryService(txnRepo, linkRepo, disbursementRepo)

	// Controllers
	healthController := controllers.NewHealthController(application)
	linkController := controllers.NewPaymentLinkController(linkService, splitConfigService)
	stripeWebhookController := controllers.NewStripeWebhookController(cfg, paymentEventService)
	disbursementController := controllers.NewDisbursementController(cfg, disbursementService)
	transactionController := controllers.NewTransactionController(summaryService)

	// Router setup
	router := mux.NewRouter()

	// Public Routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.StripeWebhook, stripeWebhookController.WebhookHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.DisbursementOutcome, disbursementController.OutcomeHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PaymentLinkBySlug, linkController.GetBySlugHandler).Methods(http.MethodGet)

	// Secured routes for link owners
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))
	secured.HandleFunc(routes.PaymentLinks, linkController.CreateHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.PaymentLinks, linkController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PaymentLinkRecipients, linkController.ReplaceRecipientsHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.PaymentLinkRecipients, linkController.ListRecipientsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PaymentLinkPreview, linkController.PreviewHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.TransactionSplits, transactionController.GetSplitsHandler).Methods(http.MethodGet)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))

	_, err = c.AddFunc(constants.ExpirySweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ExpirySweepJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting expiry sweep cron job...")
		if err := linkService.ExpireStale(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to expire stale links/transactions")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule expiry sweep cron")
	}

	_, err = c.AddFunc(constants.RefundSweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.RefundSweepJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting refund sweep cron job...")
		if err := paymentEventService.CancelRefundedSweep(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to sweep refunded transactions")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule refund sweep cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled maintenance cron jobs")

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000")
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", constants.DisbursementCallbackSecretHeader},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("payments-service failed to start:", err)
	}
}
