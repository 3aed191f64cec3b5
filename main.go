package main

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"storefront-service/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/downloads"
	"storefront-service/internal/marketing"
	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/products"
	"storefront-service/internal/stores/kafka"
	"storefront-service/internal/stores/postgres"

	"github.com/joho/godotenv"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, relying on environment")
	}

	db, err := postgres.OpenDB()
	if err != nil {
		panic(err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, embedMigrations, "migrations"); err != nil {
		panic(err)
	}

	keys, err := auth.NewKeys(mustEnv("JWT_SECRET"))
	if err != nil {
		panic(err)
	}

	signer, err := downloads.NewSigner(mustEnv("DOWNLOAD_SIGNING_SECRET"), envDuration("DOWNLOAD_URL_TTL", 15*time.Minute))
	if err != nil {
		panic(err)
	}

	frontendURL := strings.TrimSuffix(mustEnv("FRONTEND_URL"), "/")
	processor, err := payments.NewStripeProcessor(
		mustEnv("STRIPE_SECRET_KEY"),
		frontendURL+"/success?session_id={CHECKOUT_SESSION_ID}",
		frontendURL+"/checkout?canceled=true",
		envDuration("PAYMENT_TIMEOUT", 10*time.Second),
	)
	if err != nil {
		panic(err)
	}

	pConf, err := products.NewConf(db)
	if err != nil {
		panic(err)
	}
	oConf, err := orders.NewConf(db)
	if err != nil {
		panic(err)
	}
	mConf, err := marketing.NewConf(db)
	if err != nil {
		panic(err)
	}

	var kConf *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kConf, err = kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			panic(err)
		}
		defer kConf.Close()
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/api/v1"
	}

	r := handlers.API(prefix, handlers.Config{
		Products:          pConf,
		Orders:            oConf,
		Marketing:         mConf,
		Payments:          processor,
		Signer:            signer,
		Kafka:             kConf,
		Keys:              keys,
		MaxDownloads:      envInt("MAX_DOWNLOADS", orders.DefaultMaxDownloads),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	})

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("storefront service listening", slog.String("Addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.String("Error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.String("Error", err.Error()))
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(key + " is not set")
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
