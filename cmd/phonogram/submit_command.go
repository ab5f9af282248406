package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/daemon"
	"phonogram/internal/logging"
	"phonogram/internal/registry"
	"phonogram/internal/workflow"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "submit <path>",
		Short: "Add an audio file to the processing queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				d, err := newIdleDaemon(ctx, cfg, store)
				if err != nil {
					return err
				}
				work, err := d.SubmitWork(cmd.Context(), title, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued work #%d (%s)\n", work.ID, filepath.Base(work.MediaPath))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Work title (defaults to the file name)")
	return cmd
}

// newIdleDaemon builds a daemon facade for one-shot registry operations. The
// workflow manager is configured but never started.
func newIdleDaemon(ctx *commandContext, cfg *config.Config, store *registry.Store) (*daemon.Daemon, error) {
	logger := logging.NewNop()
	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(workflow.StageSet{})
	return daemon.New(cfg, store, logger, manager)
}
