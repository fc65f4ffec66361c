package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/chunker"
	"github.com/innovorex/campuskb/internal/config"
	dbRedis "github.com/innovorex/campuskb/internal/db/redis"
	"github.com/innovorex/campuskb/internal/domain"
	"github.com/innovorex/campuskb/internal/extract"
	logpkg "github.com/innovorex/campuskb/internal/logger"
	"github.com/innovorex/campuskb/internal/metrics"
	documentrepo "github.com/innovorex/campuskb/internal/repository/document"
	"github.com/innovorex/campuskb/internal/repository/embcache"
	sessionrepo "github.com/innovorex/campuskb/internal/repository/session"
	chiTransport "github.com/innovorex/campuskb/internal/transport/chi"
	openaiTransport "github.com/innovorex/campuskb/internal/transport/openai"
	chatuc "github.com/innovorex/campuskb/internal/usecase/chat"
	documentuc "github.com/innovorex/campuskb/internal/usecase/document"
	healthuc "github.com/innovorex/campuskb/internal/usecase/health"
	ingestuc "github.com/innovorex/campuskb/internal/usecase/ingest"
	retrieveuc "github.com/innovorex/campuskb/internal/usecase/retrieve"
	statsuc "github.com/innovorex/campuskb/internal/usecase/stats"
	"github.com/innovorex/campuskb/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting campuskb API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Base embedding provider wrapped with the Redis-backed cache
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:        cfg.Embedding.APIKey,
		BaseURL:       cfg.Embedding.BaseURL,
		Model:         cfg.Embedding.Model,
		Dimensions:    cfg.Embedding.Dimensions,
		MaxInputChars: cfg.Embedding.MaxInputChars,
		BatchSize:     cfg.Embedding.BatchSize,
		Logger:        logger,
	})
	embedder := embcache.New(
		baseEmbedder,
		store,
		time.Duration(cfg.Embedding.CacheTTLHours)*time.Hour,
		metrics.EmbeddingCacheTotal,
		logger,
	)

	completer := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Logger:  logger,
	})

	docRepo := documentrepo.New(store)
	sessions := sessionrepo.New(time.Duration(cfg.Chat.SessionTTLMin) * time.Minute)

	// Warm the provider and check the persisted dimension marker against
	// config so a model change is caught at startup, not at query time.
	warmupCtx, cancelWarmup := context.WithTimeout(ctx, 30*time.Second)
	if err := baseEmbedder.Warmup(warmupCtx); err != nil {
		logger.Warn("Embedding provider warmup failed, keyword retrieval only until it recovers",
			zap.Error(err),
		)
	} else if err := checkDimension(warmupCtx, docRepo, cfg.Embedding.Dimensions); err != nil {
		cancelWarmup()
		logger.Fatal("Embedding dimension check failed", zap.Error(err))
	}
	cancelWarmup()

	ingestSvc := ingestuc.New(
		docRepo,
		extract.Default(),
		chunker.New(chunker.WithSize(cfg.Ingest.ChunkSize), chunker.WithOverlap(cfg.Ingest.ChunkOverlap)),
		embedder,
		time.Duration(cfg.Ingest.TimeoutSec)*time.Second,
		logger,
	)
	docSvc := documentuc.New(docRepo, ingestSvc, cfg.Storage.UploadDir, cfg.Storage.MaxUploadMB<<20, logger)
	retrieveSvc := retrieveuc.New(docRepo, embedder, logger)
	chatSvc := chatuc.New(retrieveSvc, completer, sessions, chatuc.Config{
		Models:           cfg.Chat.Models,
		AttemptTimeout:   time.Duration(cfg.Chat.AttemptTimeoutSec) * time.Second,
		MinResponseChars: cfg.Chat.MinResponseChars,
		HistoryMessages:  cfg.Chat.HistoryMessages,
		TopK:             cfg.Chat.TopK,
	}, logger)
	statsSvc := statsuc.New(docRepo, sessions)
	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(docSvc, chatSvc, statsSvc, healthSvc, cfg.Storage.MaxUploadMB<<20, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Let in-flight ingestions write their terminal status.
	ingestSvc.Wait()

	logger.Info("Server stopped gracefully")
}

// dimensionStore reads and writes the persisted embedding dimension marker.
type dimensionStore interface {
	Dimension(ctx context.Context) (int, error)
	SetDimension(ctx context.Context, dim int) error
}

// checkDimension compares the configured dimensionality against the marker
// persisted alongside stored vectors. A mismatch means the model changed
// under existing data and similarity scores would be garbage.
func checkDimension(ctx context.Context, store dimensionStore, configured int) error {
	persisted, err := store.Dimension(ctx)
	if err != nil {
		return fmt.Errorf("read dimension marker: %w", err)
	}
	if persisted == 0 {
		if err := store.SetDimension(ctx, configured); err != nil {
			return fmt.Errorf("write dimension marker: %w", err)
		}
		return nil
	}
	if persisted != configured {
		return fmt.Errorf(
			"stored vectors have %d dimensions, config says %d: %w",
			persisted, configured, domain.ErrDimensionMismatch,
		)
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
