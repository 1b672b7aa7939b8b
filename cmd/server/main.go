package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ElSrJuez/notare/internal/api"
	"github.com/ElSrJuez/notare/internal/config"
	"github.com/ElSrJuez/notare/internal/connectors"
	"github.com/ElSrJuez/notare/internal/logger"
	"github.com/ElSrJuez/notare/internal/middleware"
	"github.com/ElSrJuez/notare/internal/outline"
	"github.com/ElSrJuez/notare/internal/pipeline"
	"github.com/ElSrJuez/notare/internal/template"
	"github.com/ElSrJuez/notare/internal/tracing"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("NOTARE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	restore := logger.Init(log)
	defer restore()

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Error("failed to shutdown tracing", zap.Error(err))
		}
	}()

	tokenStore, closeTokenStore := connectors.NewTokenStore(cfg.Connectors.TokenStore)
	defer func() {
		if err := closeTokenStore(); err != nil {
			log.Warn("failed to close token store", zap.Error(err))
		}
	}()
	oauth := connectors.NewOAuthManager(cfg.Connectors, tokenStore, log)

	defaults := outline.Defaults{
		Timeout:         cfg.LLM.Timeout,
		LlamaEndpoint:   cfg.LLM.LlamaEndpoint,
		MaxTokens:       cfg.LLM.MaxTokens,
		Temperature:     cfg.LLM.Temperature,
		OpenAIModel:     cfg.LLM.OpenAIModel,
		GeminiModel:     cfg.LLM.GeminiModel,
		AzureAPIVersion: cfg.LLM.AzureAPIVersion,
	}
	providers := func(ctx context.Context, settings outline.Settings) (outline.Provider, error) {
		return outline.New(ctx, settings, defaults, log)
	}
	store := template.NewStore(template.StoreConfig{
		DefaultDir: cfg.Templates.Dir,
		TempDir:    cfg.Templates.TempDir,
	}, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Trace(cfg.Tracing.ServiceName))
	router.Use(middleware.TraceHeader())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-Id",
			"X-Connector-Key",
			"X-Connector-Session",
		},
		ExposeHeaders: []string{
			"Content-Disposition",
			"X-Request-Id",
			"X-Trace-Id",
			"X-Template-Summary",
			"X-Template-Diagnostics",
		},
	}))

	api.RegisterRoutes(router, api.Dependencies{
		Pipeline:   pipeline.New(providers, store, log),
		Config:     *cfg,
		Connector:  connectors.New(cfg.Connectors, oauth, log),
		OAuth:      oauth,
		Normalizer: connectors.NewWebNormalizer(cfg.Connectors.Web),
	})

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.String("addr", addr), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
}
