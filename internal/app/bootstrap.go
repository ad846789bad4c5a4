package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"catalog-api/internal/auth"
	"catalog-api/internal/config"
	"catalog-api/internal/db"
	"catalog-api/internal/observability"
	"catalog-api/internal/product"
)

type Options struct {
	LoadDotEnv bool
}

type Runtime struct {
	Handler http.Handler
	Addr    string
	Logger  *observability.Logger
	Close   func() error
}

// Build assembles the whole request pipeline: config, database pool,
// auth and product services, the route table, and the middleware chain
// (recover > request logging > CORS > per-route auth).
func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(options.LoadDotEnv)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(database), hasherFromConfig(cfg), tokens)
	authHandler := auth.NewHandler(authService, logger)
	productHandler := product.NewHandler(product.NewRepository(database), logger)

	mux := routes(authHandler, productHandler, tokens, database)

	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			observability.CORSMiddleware(cfg.AllowedOrigins, mux)))

	return &Runtime{
		Handler: handler,
		Addr:    ":" + cfg.Port,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func routes(authHandler *auth.Handler, productHandler *product.Handler, tokens *auth.TokenService, database *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/Auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/Auth/login", authHandler.Login)

	mux.Handle("GET /api/Products", auth.OptionalAuth(tokens, http.HandlerFunc(productHandler.ListProducts)))
	mux.Handle("GET /api/Products/categories", auth.OptionalAuth(tokens, http.HandlerFunc(productHandler.GetCategories)))
	mux.Handle("GET /api/Products/{id}", auth.OptionalAuth(tokens, http.HandlerFunc(productHandler.GetProduct)))
	mux.Handle("POST /api/Products", auth.RequireAuth(tokens, http.HandlerFunc(productHandler.CreateProduct)))
	mux.Handle("PUT /api/Products/{id}", auth.RequireAuth(tokens, http.HandlerFunc(productHandler.UpdateProduct)))
	mux.Handle("DELETE /api/Products/{id}", auth.RequireAuth(tokens, http.HandlerFunc(productHandler.DeleteProduct)))

	mux.HandleFunc("GET /health", healthHandler(database))

	return mux
}

func hasherFromConfig(cfg config.Config) auth.Hasher {
	if cfg.PasswordHashScheme == "pbkdf2" {
		return auth.NewPBKDF2Hasher([]byte(cfg.PBKDF2Salt), cfg.PBKDF2Iterations)
	}
	return auth.SHA256Hasher{}
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
