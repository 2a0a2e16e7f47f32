package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clinicdesk/schedcal/internal/changefeed"
	"github.com/clinicdesk/schedcal/internal/directory"
	"github.com/clinicdesk/schedcal/internal/handlers"
	"github.com/clinicdesk/schedcal/internal/persist"
	"github.com/clinicdesk/schedcal/internal/store"
	"github.com/clinicdesk/schedcal/libs/config"
	"github.com/clinicdesk/schedcal/libs/httpx"
	"github.com/clinicdesk/schedcal/libs/kafkax"
	otelx "github.com/clinicdesk/schedcal/libs/otel"
	"github.com/clinicdesk/schedcal/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "schedcal")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dir := directory.Default()
	if path := config.String("DIRECTORY_FILE", ""); path != "" {
		dir, err = directory.LoadFile(path)
		if err != nil {
			logger.Error("directory load failed", "err", err)
			panic(err)
		}
	}

	slot, closeSlot, slotReady, err := persist.Open(ctx, persist.Config{
		Backend:     config.String("SLOT_BACKEND", "file"),
		Path:        config.String("SLOT_PATH", ""),
		DatabaseURL: config.String("DATABASE_URL", ""),
		RedisAddr:   config.String("REDIS_ADDR", ""),
	})
	if err != nil {
		logger.Error("slot backend init failed", "err", err)
		panic(err)
	}
	defer closeSlot()

	seed := persist.EmptySeed
	if config.String("SEED_POLICY", "empty") == "sample" {
		seed = persist.SampleSeed(config.Int64("SEED_VALUE", 1), dir)
	}

	st := store.New()
	bridge := persist.NewBridge(slot, seed, logger)
	if err := bridge.Hydrate(ctx, st); err != nil {
		logger.Error("hydration failed", "err", err)
		panic(err)
	}
	bridge.Attach(st)
	logger.Info("store hydrated", "appointments", st.Len())

	checks := []runtime.ReadyCheck{{Name: "slot", Check: slotReady}}
	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" {
		feed := changefeed.NewPublisher(brokers, config.String("KAFKA_TOPIC", "schedcal.appointments.v1"), logger)
		defer func() { _ = feed.Close() }()
		feed.Attach(st)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	calendarHandler := handlers.NewCalendarHandler(st, dir, logger)
	formHandler := handlers.NewFormHandler(st, logger)

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.HandleFunc("/api/v1/events", calendarHandler.Events)
	mux.HandleFunc("/api/v1/calendar.ics", calendarHandler.ICS)
	mux.HandleFunc("/api/v1/patients", calendarHandler.Patients)
	mux.HandleFunc("/api/v1/doctors", calendarHandler.Doctors)
	mux.HandleFunc("/api/v1/form/open", formHandler.Open)
	mux.HandleFunc("/api/v1/form/submit", formHandler.Submit)
	mux.HandleFunc("/api/v1/form/delete", formHandler.Delete)
	mux.HandleFunc("/api/v1/form/cancel", formHandler.Cancel)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(splitList(config.String("CORS_ALLOWED_ORIGINS", ""))),
		httpx.WithBodyLimit(1 << 20),
	}

	if password := config.String("AUTH_PASSWORD", ""); password != "" {
		auth, err := handlers.NewSessionAuth(
			config.String("AUTH_USERNAME", "admin"),
			password,
			12*time.Hour,
			logger,
		)
		if err != nil {
			logger.Error("auth setup failed", "err", err)
			panic(err)
		}
		mux.HandleFunc("/api/v1/login", auth.Login)
		mux.HandleFunc("/api/v1/logout", auth.Logout)
		middlewares = append(middlewares, auth.Middleware)
	} else {
		logger.Warn("AUTH_PASSWORD not set; the API is unauthenticated")
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
