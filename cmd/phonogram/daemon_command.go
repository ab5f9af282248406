package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/daemon"
	"phonogram/internal/ingest"
	"phonogram/internal/logging"
	"phonogram/internal/minting"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
	"phonogram/internal/screening"
	"phonogram/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the processing daemon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				logger, err := ctx.newLogger(cfg, true)
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}

				manager, err := buildWorkflowManager(cfg, store, logger, registration.GateSkipFlagged)
				if err != nil {
					return err
				}
				d, err := daemon.New(cfg, store, logger, manager)
				if err != nil {
					return err
				}

				if err := d.Start(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon running; press Ctrl+C to stop.")

				signals := make(chan os.Signal, 1)
				signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(signals)

				select {
				case <-cmd.Context().Done():
				case sig := <-signals:
					logger.Info("shutdown signal received", logging.String("signal", sig.String()))
				}

				d.Stop()
				return nil
			})
		},
	}
}

func buildWorkflowManager(cfg *config.Config, store *registry.Store, logger *slog.Logger, policy registration.GatingPolicy) (*workflow.Manager, error) {
	ingester, err := ingest.NewIngester(cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("build ingest stage: %w", err)
	}
	screener, err := screening.NewScreener(cfg, store, logger, policy)
	if err != nil {
		return nil, fmt.Errorf("build screening stage: %w", err)
	}
	minter, err := minting.NewMinter(cfg, store, logger, policy)
	if err != nil {
		return nil, fmt.Errorf("build minting stage: %w", err)
	}

	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(workflow.StageSet{
		Ingester: ingester,
		Screener: screener,
		Minter:   minter,
	})
	return manager, nil
}
