package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"passenger-rights-bot/internal/config"
	"passenger-rights-bot/internal/logger"
	"passenger-rights-bot/internal/server"
)

func newServeCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "Listen port")
	return cmd
}

// Serve runs the API until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, cfg config.Config) error {
	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, AppEnv: cfg.AppEnv})

	s, err := server.NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	go s.RunJanitor(ctx, time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(logger.Fields{"addr": srv.Addr}, "passenger rights server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info(nil, "shutting down")
	return srv.Shutdown(shutdownCtx)
}
