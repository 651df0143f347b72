package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/romariomartinez/ApiEcommerce/internal/app"
	"github.com/romariomartinez/ApiEcommerce/internal/clock"
	"github.com/romariomartinez/ApiEcommerce/internal/config"
	"github.com/romariomartinez/ApiEcommerce/internal/events"
	"github.com/romariomartinez/ApiEcommerce/internal/gateway"
	"github.com/romariomartinez/ApiEcommerce/internal/redisx"
	"github.com/romariomartinez/ApiEcommerce/internal/storage/postgres"
	transporthttp "github.com/romariomartinez/ApiEcommerce/internal/transport/http"
	"github.com/romariomartinez/ApiEcommerce/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	logger := log.Default()
	cfg := config.Load()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderEventsTopic, cfg.ServiceName, logger)
	defer publisher.Close()

	orderRepo := postgres.NewOrderRepository(pool)
	orderSvc := app.NewOrderService(orderRepo, clock.NewSystem())
	paymentRepo := postgres.NewPaymentRepository(pool)
	paymentSvc := app.NewPaymentService(paymentRepo, gateway.NewStripe(cfg.StripeSecretKey), clock.NewSystem(), logger)
	catalogRepo := postgres.NewCatalogRepository(pool)
	catalogSvc := app.NewCatalogService(catalogRepo, clock.NewSystem())

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/health", transporthttp.HealthHandler)
	router.NotFound(transporthttp.NotFoundHandler().ServeHTTP)

	webhook := &transporthttp.WebhookHandler{
		Svc:    paymentSvc,
		Secret: cfg.StripeWebhookSecret,
		Events: publisher,
		Cache:  rdb,
		Logger: logger,
	}
	webhook.Register(router)

	router.Group(func(r chi.Router) {
		r.Use(transporthttp.WithCaller)

		ordersHandler := &transporthttp.OrdersHandler{
			Svc:    orderSvc,
			Events: publisher,
			Cache:  rdb,
			Logger: logger,
		}
		ordersHandler.Register(r)

		paymentsHandler := &transporthttp.PaymentsHandler{Svc: paymentSvc}
		paymentsHandler.Register(r)

		r.Group(func(ar chi.Router) {
			ar.Use(transporthttp.RequireAdmin)
			adminHandler := &transporthttp.AdminHandler{
				Orders:  orderSvc,
				Catalog: catalogSvc,
				Events:  publisher,
				Cache:   rdb,
				Logger:  logger,
			}
			adminHandler.Register(ar)
		})
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	log.Printf("api listening on %s", cfg.HTTPAddr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
