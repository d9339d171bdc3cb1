package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"animator/internal/app"
	"animator/internal/http/handlers"
	httpapi "animator/internal/http/httpapi"
	"animator/internal/infra"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer services.Close()

	handlerApp := &handlers.App{
		Generator:      services.Animator,
		Blobs:          services.Blobs,
		History:        services.History,
		Logger:         &logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	router := httpapi.NewRouter(handlerApp, httpapi.Options{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMin,
		MaxInflight:        cfg.MaxInflight,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		Registry:           services.Registry,
	})

	server := infra.NewHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("model", services.Gemini.Model()).
			Bool("history", services.History != nil).
			Msg("api: listening")
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
