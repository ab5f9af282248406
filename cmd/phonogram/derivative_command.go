package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/licensing"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
)

func newDerivativeCommand(ctx *commandContext) *cobra.Command {
	derivativeCmd := &cobra.Command{
		Use:   "derivative",
		Short: "Register derivative works under parent licenses",
	}
	derivativeCmd.AddCommand(newDerivativeRegisterCommand(ctx))
	return derivativeCmd
}

func newDerivativeRegisterCommand(ctx *commandContext) *cobra.Command {
	var title string
	var description string
	var mediaURL string
	var parents []string
	var terms []string
	var oneTimeUse bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a derivative asset linked to its parents",
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

				flow := registration.FlowStandard
				if oneTimeUse {
					flow = registration.FlowOneTimeUse
				}
				result, err := manager.RegisterDerivative(cmd.Context(), licensing.DerivativeInput{
					Title:           title,
					Description:     description,
					MediaURL:        mediaURL,
					ParentIPIDs:     parents,
					LicenseTermsIDs: terms,
					Flow:            flow,
				})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Registered derivative %s (tx %s)\n", result.ChildIPID, result.TxHash)
				for _, link := range result.Links {
					fmt.Fprintf(out, "  linked to %s (terms %s)\n", link.ParentIPID, link.LicenseTermsID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Derivative title")
	cmd.Flags().StringVar(&description, "description", "", "Derivative description")
	cmd.Flags().StringVar(&mediaURL, "media-url", "", "URL of the derivative media")
	cmd.Flags().StringSliceVar(&parents, "parent", nil, "Parent IP asset id (repeatable)")
	cmd.Flags().StringSliceVar(&terms, "terms", nil, "License terms id per parent (repeatable)")
	cmd.Flags().BoolVar(&oneTimeUse, "one-time-use", false, "Use the one-time-use license flow")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("parent")
	return cmd
}
