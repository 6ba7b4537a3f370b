package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/portfolio-api/api/openapi"
	"github.com/benvon/portfolio-api/internal/config"
	"github.com/benvon/portfolio-api/internal/handlers"
	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/middleware"
	"github.com/benvon/portfolio-api/internal/services/contributions"
	"github.com/benvon/portfolio-api/internal/services/github"
	"github.com/benvon/portfolio-api/internal/services/gitlab"
	"github.com/benvon/portfolio-api/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "portfolio-api"

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	_ = godotenv.Load()

	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("github_user", cfg.GitHubUser),
		zap.Bool("github_token_set", cfg.GitHubToken != ""),
		zap.Bool("gitlab_token_set", cfg.GitLabToken != ""),
		zap.Bool("trust_proxy_headers", cfg.TrustProxyHeaders),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	var tracerProvider *sdktrace.TracerProvider
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), serviceName, version, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracerProvider = tp
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tracerProvider); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	// Redis is optional: without it the rate limiter keeps its counters in memory
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("invalid_redis_url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			zapLogger.Warn("redis_unreachable_at_startup", zap.Error(err))
		} else {
			zapLogger.Info("connected_to_redis")
		}
		cancel()
	}

	var metrics *telemetry.Metrics
	if cfg.MetricsEnabled {
		metrics, err = telemetry.NewMetrics()
		if err != nil {
			zapLogger.Fatal("failed_to_initialize_metrics", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				zapLogger.Warn("failed_to_shutdown_metrics", zap.Error(err))
			}
		}()
	}

	githubClient := github.NewClient(cfg.GitHubToken, cfg.GitHubUser, cfg.ProviderTimeout,
		github.WithEndpoint(cfg.GitHubAPIURL),
		github.WithLogger(zapLogger),
	)
	gitlabClient := gitlab.NewClient(cfg.GitLabToken, cfg.ProviderTimeout,
		gitlab.WithBaseURL(cfg.GitLabAPIURL),
		gitlab.WithLogger(zapLogger),
	)
	privateSource := contributions.NewPrivateSource(cfg.PrivateContributionsFile)

	// Fail fast on a broken private document rather than on every request
	if _, err := privateSource.Load(context.Background()); err != nil {
		zapLogger.Fatal("invalid_private_contributions",
			zap.String("path", privateSource.Path()),
			zap.Error(err),
		)
	}

	aggOpts := []contributions.Option{}
	statsOpts := []handlers.GitStatsOption{}
	if metrics != nil {
		aggOpts = append(aggOpts, contributions.WithRecorder(metrics))
		statsOpts = append(statsOpts, handlers.WithFailureRecorder(metrics))
	}
	aggregator := contributions.NewAggregator(githubClient, gitlabClient, privateSource, zapLogger, aggOpts...)

	gitStatsHandler := handlers.NewGitStatsHandler(aggregator, zapLogger, statsOpts...)

	var pinger handlers.RedisPinger
	if redisClient != nil {
		pinger = redisClient
	}
	healthChecker := handlers.NewHealthChecker(pinger, version)

	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_document", zap.Error(err))
	}

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, cfg.TrustProxyHeaders, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	r := mux.NewRouter()

	// Middleware registered first is the outermost wrapper
	if tracerProvider != nil {
		r.Use(otelmux.Middleware(serviceName, otelmux.WithTracerProvider(tracerProvider)))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	// Longer than the provider timeout so a slow upstream degrades instead of timing out
	r.Use(middleware.Timeout(cfg.ProviderTimeout + 5*time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger, cfg.TrustProxyHeaders))
	r.Use(middleware.Logging(zapLogger))

	healthChecker.RegisterRoutes(r)
	openAPIHandler.RegisterRoutes(r)
	if metrics != nil {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	gitStatsHandler.RegisterRoutes(apiRouter)

	// Preflight requests are answered by the CORS middleware; this keeps mux
	// from returning 405 for routes that only declare GET
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
