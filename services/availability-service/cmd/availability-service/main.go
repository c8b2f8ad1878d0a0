package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clinicbook/clinicbook/libs/auth"
	"github.com/clinicbook/clinicbook/libs/config"
	"github.com/clinicbook/clinicbook/libs/db"
	"github.com/clinicbook/clinicbook/libs/httpx"
	"github.com/clinicbook/clinicbook/libs/kafkax"
	"github.com/clinicbook/clinicbook/libs/otelx"
	"github.com/clinicbook/clinicbook/libs/runtime"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/calendar"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/engine"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/events"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/handlers"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/policy"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8084")
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

	backend := strings.ToLower(config.String("CALENDAR_BACKEND", "postgres"))

	var (
		source   calendar.BusySource
		sink     calendar.ReservationSink
		table    *policy.Table
		readies  []runtime.ReadyCheck
		poolOpen *db.Pool
	)

	switch backend {
	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			panic(err)
		}
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		poolOpen = pool

		store := calendar.NewPostgresStore(pool)
		source, sink = store, store

		overrides, err := policy.LoadPostgres(ctx, pool)
		if err != nil {
			logger.Error("policy load failed", "err", err)
			panic(err)
		}
		table, err = policy.NewTable(policy.Default(), overrides)
		if err != nil {
			logger.Error("policy table invalid", "err", err)
			panic(err)
		}
		readies = append(readies, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

	case "google":
		creds, err := loadGoogleCredentials()
		if err != nil {
			logger.Error("google credentials load failed", "err", err)
			panic(err)
		}
		client, err := calendar.NewGoogleClient(ctx, creds)
		if err != nil {
			logger.Error("google client init failed", "err", err)
			panic(err)
		}
		source, sink = client, client

		policyPath, err := config.RequiredString("POLICY_FILE")
		if err != nil {
			panic(err)
		}
		data, err := os.ReadFile(policyPath)
		if err != nil {
			logger.Error("policy file read failed", "err", err)
			panic(err)
		}
		defaults, overrides, err := policy.FromJSON(data)
		if err != nil {
			logger.Error("policy file invalid", "err", err)
			panic(err)
		}
		table, err = policy.NewTable(defaults, overrides)
		if err != nil {
			logger.Error("policy table invalid", "err", err)
			panic(err)
		}

	default:
		panic(fmt.Sprintf("unknown CALENDAR_BACKEND %q", backend))
	}
	if poolOpen != nil {
		defer poolOpen.Close()
	}

	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" {
		readies = append(readies, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	var rdb *redis.Client
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		readies = append(readies, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	publisher := events.NewPublisher(brokers, logger)
	defer func() { _ = publisher.Close() }()

	eng := engine.New(table, source, sink, logger)
	api := handlers.NewAPI(eng, table, publisher, logger)

	mux := runtime.NewBaseMuxWithReady(readies...)
	mux.HandleFunc("/api/v1/availability", api.Availability)
	mux.HandleFunc("/api/v1/clinicians", api.Clinicians)
	mux.Handle("/api/v1/book", requireAuth(config.String("AUTH_JWT_SECRET", ""), logger, http.HandlerFunc(api.Book)))

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
	}
	if origins := config.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		middlewares = append(middlewares, httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(origins, ","),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))
	}
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)))
	} else {
		limiter := httpx.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute)
		middlewares = append(middlewares, limiter.Middleware())
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "availability")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "backend", backend)
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

// loadGoogleCredentials accepts the credential JSON either inline or from a
// file path. The blob only ever lives in process memory; it is handed to the
// API client and never re-persisted.
func loadGoogleCredentials() ([]byte, error) {
	if inline := os.Getenv("GOOGLE_CREDENTIALS_JSON"); inline != "" {
		return []byte(inline), nil
	}
	if path := os.Getenv("GOOGLE_CREDENTIALS_FILE"); path != "" {
		return os.ReadFile(path)
	}
	return nil, fmt.Errorf("set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE")
}

// requireAuth gates a handler behind an HS256 bearer token. An empty secret
// disables the gate, matching local development setups without an auth
// issuer.
func requireAuth(secret string, logger *slog.Logger, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if _, err := auth.ParseAndVerifyHS256(token, secret); err != nil {
			logger.Warn("rejected token", "err", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
