package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sanketpal/filevault"
	"github.com/sanketpal/filevault/config"
	filevaulthttp "github.com/sanketpal/filevault/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the filevault HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	tokens, err := filevault.NewTokenService(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTL)*time.Second)
	if err != nil {
		return fmt.Errorf("create token service: %w", err)
	}

	files, repos, cleanup, err := buildFileService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("connected to database", "type", cfg.Database.Type)

	auth := filevault.NewAuthService(repos.Users, tokens)

	handlerConfig := filevaulthttp.HandlerConfig{
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}

	handler := filevaulthttp.NewHandler(&handlerConfig, auth, files, tokens)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
