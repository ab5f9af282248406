package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/daemon"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var title string
	var recordOnly bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "register <path>",
		Short: "Run the full pipeline for a single audio file and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				logger, err := ctx.newLogger(cfg, false)
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}
				policy := registration.GateSkipFlagged
				if recordOnly {
					policy = registration.GateRecordOnly
				}
				manager, err := buildWorkflowManager(cfg, store, logger, policy)
				if err != nil {
					return err
				}
				d, err := daemon.New(cfg, store, logger, manager)
				if err != nil {
					return err
				}

				work, err := d.SubmitWork(cmd.Context(), title, args[0])
				if err != nil {
					return err
				}
				if err := d.Start(cmd.Context()); err != nil {
					return err
				}
				defer d.Stop()

				final, err := waitForTerminal(cmd.Context(), store, work.ID)
				if err != nil {
					return err
				}
				return printWorkResult(cmd, final, jsonOut)
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Work title (defaults to the file name)")
	cmd.Flags().BoolVar(&recordOnly, "record-only", false, "Register even when screening flags matches; record the outcome instead of skipping")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}

func waitForTerminal(ctx context.Context, store *registry.Store, workID int64) (*registry.Work, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		work, err := store.GetWorkByID(ctx, workID)
		if err != nil {
			return nil, err
		}
		if work == nil {
			return nil, fmt.Errorf("work #%d disappeared from the registry", workID)
		}
		switch work.Status {
		case registry.StatusCompleted, registry.StatusFailed, registry.StatusReview:
			return work, nil
		}
	}
}

func printWorkResult(cmd *cobra.Command, work *registry.Work, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, work)
	}
	out := cmd.OutOrStdout()
	switch work.Status {
	case registry.StatusCompleted:
		fmt.Fprintf(out, "Work #%d completed\n", work.ID)
		var result registration.AssetResult
		if work.MetadataJSON != "" {
			if err := json.Unmarshal([]byte(work.MetadataJSON), &result); err == nil {
				fmt.Fprintf(out, "  IP asset:  %s\n", result.IPID)
				fmt.Fprintf(out, "  Tx hash:   %s\n", result.TxHash)
				fmt.Fprintf(out, "  Verified:  %s (confidence %d)\n", yesNo(result.Verified), result.Confidence)
				if result.ExplorerURL != "" {
					fmt.Fprintf(out, "  Explorer:  %s\n", result.ExplorerURL)
				}
			}
		}
	case registry.StatusReview:
		fmt.Fprintf(out, "Work #%d held for manual review: %s\n", work.ID, work.ReviewReason)
	default:
		fmt.Fprintf(out, "Work #%d failed: %s\n", work.ID, work.ErrorMessage)
	}
	return nil
}
