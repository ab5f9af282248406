package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/licensing"
	"phonogram/internal/registry"
)

func newLicenseCommand(ctx *commandContext) *cobra.Command {
	licenseCmd := &cobra.Command{
		Use:   "license",
		Short: "Mint license tokens against registered assets",
	}
	licenseCmd.AddCommand(newLicenseMintCommand(ctx))
	return licenseCmd
}

func newLicenseMintCommand(ctx *commandContext) *cobra.Command {
	var licensor string
	var termsID string
	var receiver string
	var amount int
	var maxFee string
	var maxRevShare int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint license tokens for a licensor asset",
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
				fee := decimal.Zero
				if strings.TrimSpace(maxFee) != "" {
					fee, err = decimal.NewFromString(maxFee)
					if err != nil {
						return fmt.Errorf("parse --max-fee %q: %w", maxFee, err)
					}
				}
				response, err := manager.MintLicenseTokens(cmd.Context(), licensing.MintTokensInput{
					LicensorIPID:    licensor,
					LicenseTermsID:  termsID,
					Receiver:        receiver,
					Amount:          amount,
					MaxMintingFee:   fee,
					MaxRevenueShare: maxRevShare,
				})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, response)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Minted license token(s) %s (tx %s)\n",
					strings.Join(response.LicenseTokenIDs, ", "), response.TxHash)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&licensor, "licensor", "", "Licensor IP asset id")
	cmd.Flags().StringVar(&termsID, "terms", "", "License terms id")
	cmd.Flags().StringVar(&receiver, "receiver", "", "Receiver address (defaults to the configured creator)")
	cmd.Flags().IntVar(&amount, "amount", 1, "Number of license tokens to mint")
	cmd.Flags().StringVar(&maxFee, "max-fee", "", "Upper bound on the minting fee the relayer may pay")
	cmd.Flags().IntVar(&maxRevShare, "max-rev-share", 0, "Upper bound on accepted revenue share percent")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	_ = cmd.MarkFlagRequired("licensor")
	_ = cmd.MarkFlagRequired("terms")
	return cmd
}
