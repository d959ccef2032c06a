package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profile-app/config"
	"profile-app/database"
	stripewebhooks "profile-app/internal/api/stripewebhook"
	routes "profile-app/internal/app/http"
	"profile-app/internal/app/worker"
	"profile-app/internal/domain/access"
	"profile-app/internal/domain/billing"
	"profile-app/internal/infra/stripe"
	"profile-app/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	config.LoadEnv()
	logging.Init(logging.Config{
		Level:     config.LOG_LEVEL,
		Format:    config.LOG_FORMAT,
		Component: "profile-app",
	})
	database.InitDB(config.DB_URL)

	supervisor := worker.NewSupervisor(config.WEBHOOK_WORKERS, config.WEBHOOK_QUEUE_SIZE)
	go func() {
		// Ordinary failures are already logged by the reconciler and stored on
		// webhook_events; only panics reach the log from here.
		for err := range supervisor.Errors() {
			var te worker.TaskError
			if errors.As(err, &te) && te.Panicked {
				log.Error().Err(err).Str("task", te.Task).Msg("background task panicked")
			}
		}
	}()

	gateway := stripe.NewClient(config.STRIPE_SECRET_KEY)
	deps := routes.Deps{
		Checkout: billing.NewCheckoutService(database.DB, gateway, config.APP_URL),
		Webhooks: stripewebhooks.NewHandler(config.STRIPE_WEBHOOK_SECRET, supervisor, billing.NewReconciler(database.DB)),
		Resolver: access.NewResolver(config.OPERATOR_EMAILS),
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger())

	// CORS goes on before any route is registered
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// Queued webhooks were already acknowledged to Stripe, so finish them.
	if err := supervisor.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("webhook queue not fully drained")
	}
}
