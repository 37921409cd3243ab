package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/kind-letters/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/kind-letters/pkg/config"
	"github.com/wadjakorntonsri/kind-letters/pkg/core/services"
	"github.com/wadjakorntonsri/kind-letters/pkg/logger"
	"github.com/wadjakorntonsri/kind-letters/pkg/ports"
)

// app is what every subcommand works against
type app struct {
	store   ports.Store
	letters *services.LetterService
	log     *zap.Logger
}

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openApp(verbose bool) (*app, error) {
	cfg := config.Load()

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.MustNew(logger.Options{Level: level, Development: true})

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL, cfg.DatabaseAuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return newApp(repo, log), nil
}

func newApp(store ports.Store, log *zap.Logger) *app {
	return &app{
		store:   store,
		letters: services.NewLetterService(store, nil, log),
		log:     log,
	}
}

func (a *app) Close() error {
	return a.store.Close()
}

// opener lets tests swap the database
type opener func(verbose bool) (*app, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "letters",
		Short:         "Moderate and migrate the letters database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newPendingCmd(open),
		newApproveCmd(open),
		newRejectCmd(open),
		newStatsCmd(open),
		newExportCmd(open),
		newImportCmd(open),
	)
	return root
}
