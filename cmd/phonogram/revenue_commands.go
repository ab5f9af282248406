package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/licensing"
	"phonogram/internal/registry"
)

func newRevenueCommand(ctx *commandContext) *cobra.Command {
	revenueCmd := &cobra.Command{
		Use:   "revenue",
		Short: "Claim and inspect royalty revenue",
	}
	revenueCmd.AddCommand(newRevenueClaimCommand(ctx))
	revenueCmd.AddCommand(newRevenuePendingCommand(ctx))
	return revenueCmd
}

func newRevenueClaimCommand(ctx *commandContext) *cobra.Command {
	var ancestor string
	var claimer string
	var children []string
	var policies []string
	var currencies []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim royalties accrued against an ancestor asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				logger, err := ctx.newLogger(cfg, false)
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}
				manager, err := ctx.newLicensingManager(cfg, store, logger)
				if err != nil {
					return err
				}
				result, err := manager.ClaimRevenue(cmd.Context(), licensing.ClaimInput{
					AncestorIPID:    ancestor,
					Claimer:         claimer,
					ChildIPIDs:      children,
					RoyaltyPolicies: policies,
					CurrencyTokens:  currencies,
				})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claimed %s %s (tx %s)\n",
					result.ClaimedAmount.String(), result.CurrencyToken, result.TxHash)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&ancestor, "ancestor", "", "Ancestor IP asset id")
	cmd.Flags().StringVar(&claimer, "claimer", "", "Claimer address (defaults to the configured creator)")
	cmd.Flags().StringSliceVar(&children, "child", nil, "Child IP asset id (repeatable)")
	cmd.Flags().StringSliceVar(&policies, "royalty-policy", nil, "Royalty policy address (repeatable)")
	cmd.Flags().StringSliceVar(&currencies, "currency", nil, "Currency token address (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	_ = cmd.MarkFlagRequired("ancestor")
	return cmd
}

func newRevenuePendingCommand(ctx *commandContext) *cobra.Command {
	var ancestor string
	var totalEarned string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Show unclaimed revenue for an ancestor asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(totalEarned)
			if err != nil {
				return fmt.Errorf("parse total earned %q: %w", totalEarned, err)
			}
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				logger, err := ctx.newLogger(cfg, false)
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}
				manager, err := ctx.newLicensingManager(cfg, store, logger)
				if err != nil {
					return err
				}
				pending, err := manager.PendingRevenue(cmd.Context(), ancestor, total)
				if err != nil {
					return err
				}
				claimed, err := store.SumClaimed(cmd.Context(), ancestor)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Ancestor: %s\n", ancestor)
				fmt.Fprintf(out, "Earned:   %s\n", total.String())
				fmt.Fprintf(out, "Claimed:  %s\n", claimed.String())
				fmt.Fprintf(out, "Pending:  %s\n", pending.String())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&ancestor, "ancestor", "", "Ancestor IP asset id")
	cmd.Flags().StringVar(&totalEarned, "total-earned", "0", "Total revenue earned to date")
	_ = cmd.MarkFlagRequired("ancestor")
	return cmd
}
