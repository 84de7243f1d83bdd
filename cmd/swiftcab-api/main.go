// README: Entry point; loads config, wires services, starts HTTP server and the reference-data consumer.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"swiftcab/internal/booking"
	"swiftcab/internal/cities"
	"swiftcab/internal/config"
	"swiftcab/internal/drivers"
	"swiftcab/internal/geo"
	httptransport "swiftcab/internal/http"
	"swiftcab/internal/infra"
	"swiftcab/internal/quote"
	"swiftcab/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("load timezone", "tz", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	st := store.Dial(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
	if err := st.EnsureUnique(ctx, booking.Collection, "booking_id"); err != nil {
		log.Error("booking code index", "error", err)
		os.Exit(1)
	}

	var ledger *booking.Ledger
	if cfg.Audit.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.Audit.DSN)
		if err != nil {
			log.Error("audit ledger init", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		ledger = booking.NewLedger(pool)
	}

	var router geo.Router
	if cfg.Routing.MapsAPIKey != "" {
		mr, err := geo.NewMapsRouter(cfg.Routing.MapsAPIKey)
		if err != nil {
			log.Error("maps router init", "error", err)
			os.Exit(1)
		}
		router = mr
	} else {
		log.Warn("no maps api key configured, distances use the road factor approximation")
	}
	estimator := geo.NewEstimator(router, cfg.Routing.RoadFactor)

	registry := cities.NewRegistry(st, nil, log)
	if cfg.Redis.Addr != "" {
		registry = cities.NewRegistry(st, infra.NewRedis(cfg.Redis.Addr), log)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := cities.NewConsumer(registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, log)
		go consumer.Run(ctx)
	}

	driverSvc := drivers.NewService(st)
	quoteSvc := quote.NewService(registry, estimator, log)
	bookingSvc := booking.NewService(st, quoteSvc, driverSvc, ledger, loc, log)

	handler := httptransport.NewRouter(bookingSvc, quoteSvc, log)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("http server", "error", err)
		os.Exit(1)
	}
}
