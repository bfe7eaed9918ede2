package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stallkit/stall/app"
	"github.com/stallkit/stall/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the marketplace server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithYAMLFile(configPath)
	}

	cfg := &config.Config{}
	if err := loader.Load(cfg); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	a, err := app.New(app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("assemble application: %w", err)
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Config changes are picked up on the next restart; the watcher
	// just surfaces them so operators notice.
	if configPath != "" {
		watcher, werr := config.NewWatcher(loader, configPath, logger)
		if werr != nil {
			logger.Warn("config watcher unavailable", zap.Error(werr))
		} else {
			watcher.OnReload(func(next *config.Config) {
				logger.Info("configuration file changed; restart to apply",
					zap.String("address", next.Server.Address),
					zap.String("gateway", next.Payment.Gateway))
			})
			watcher.Start()
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
		if err := a.Shutdown(context.Background()); err != nil {
			return err
		}
		return <-errCh
	}
}
