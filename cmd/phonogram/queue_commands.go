package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/registry"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(stats))
				for _, status := range registry.AllStatuses() {
					count := stats[status]
					if count == 0 {
						continue
					}
					rows = append(rows, []string{string(status), strconv.Itoa(count)})
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				out := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued works",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				statuses := make([]registry.Status, 0, len(listStatuses))
				for _, raw := range listStatuses {
					statuses = append(statuses, registry.Status(strings.TrimSpace(raw)))
				}
				works, err := store.ListWorks(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(works) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(works))
				for _, work := range works {
					rows = append(rows, []string{
						strconv.FormatInt(work.ID, 10),
						work.Title,
						string(work.Status),
						work.CreatedAt.Local().Format(time.DateTime),
						work.ProgressMessage,
					})
				}
				out := renderTable(
					[]string{"ID", "Title", "Status", "Created", "Progress"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one work in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse work id %q: %w", args[0], err)
			}
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				work, err := store.GetWorkByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if work == nil {
					return fmt.Errorf("work #%d not found", id)
				}
				if jsonOut {
					return writeJSON(cmd, work)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Work #%d: %s\n", work.ID, work.Title)
				fmt.Fprintf(out, "  Status:       %s\n", work.Status)
				fmt.Fprintf(out, "  Creator:      %s (%s)\n", work.CreatorName, work.CreatorAddress)
				fmt.Fprintf(out, "  Media:        %s\n", work.MediaPath)
				if work.MediaURL != "" {
					fmt.Fprintf(out, "  Media URL:    %s\n", work.MediaURL)
				}
				if work.ContentHash != "" {
					fmt.Fprintf(out, "  Content hash: %s\n", work.ContentHash)
				}
				if work.TokenID != "" {
					fmt.Fprintf(out, "  Token id:     %s\n", work.TokenID)
				}
				if work.NeedsReview {
					fmt.Fprintf(out, "  Review:       %s\n", work.ReviewReason)
				}
				if work.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:        %s\n", work.ErrorMessage)
				}
				fmt.Fprintf(out, "  Progress:     %s (%.0f%%)\n", work.ProgressMessage, work.ProgressPercent)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the work as JSON")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove works from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completedOnly && failedOnly {
				return fmt.Errorf("--completed and --failed are mutually exclusive")
			}
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				var removed int64
				var err error
				switch {
				case completedOnly:
					removed, err = store.ClearCompleted(cmd.Context())
				case failedOnly:
					removed, err = store.ClearFailed(cmd.Context())
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d work(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Remove only completed works")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Remove only failed works")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Reset in-flight works back to their resumable statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				reset, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d work(s)\n", reset)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed works (all of them when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("parse work id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				retried, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d work(s)\n", retried)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show registry health diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				db, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:   %s\n", db.DBPath)
				fmt.Fprintf(out, "Readable:   %s\n", yesNo(db.DatabaseReadable))
				fmt.Fprintf(out, "Integrity:  %s\n", yesNo(db.IntegrityCheck))
				fmt.Fprintf(out, "Schema:     %s\n", db.SchemaVersion)
				if len(db.MissingTables) > 0 {
					fmt.Fprintf(out, "Missing:    %s\n", strings.Join(db.MissingTables, ", "))
				}
				if db.Error != "" {
					fmt.Fprintf(out, "Error:      %s\n", db.Error)
				}
				fmt.Fprintf(out, "Total:      %d\n", health.Total)
				fmt.Fprintf(out, "Pending:    %d\n", health.Pending)
				fmt.Fprintf(out, "Processing: %d\n", health.Processing)
				fmt.Fprintf(out, "Failed:     %d\n", health.Failed)
				fmt.Fprintf(out, "Review:     %d\n", health.Review)
				fmt.Fprintf(out, "Completed:  %d\n", health.Completed)
				return nil
			})
		},
	}
}
