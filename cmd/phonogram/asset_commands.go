package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"phonogram/internal/config"
	"phonogram/internal/registry"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Inspect registered IP assets",
	}
	assetsCmd.AddCommand(newAssetsListCommand(ctx))
	assetsCmd.AddCommand(newAssetsShowCommand(ctx))
	return assetsCmd
}

func newAssetsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				assets, err := store.ListAssets(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, assets)
				}
				if len(assets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No assets registered")
					return nil
				}
				rows := make([][]string, 0, len(assets))
				for _, asset := range assets {
					rows = append(rows, []string{
						strconv.FormatInt(asset.ID, 10),
						asset.IPID,
						asset.ChainTokenID,
						yesNo(asset.Verified),
						strconv.Itoa(asset.Confidence),
						strings.Join(asset.LicenseTermsIDs, ","),
					})
				}
				out := renderTable(
					[]string{"ID", "IP Asset", "Token", "Verified", "Confidence", "Terms"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit assets as JSON")
	return cmd
}

func newAssetsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <ip-id>",
		Short: "Show one registered asset and its derivative links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				asset, err := store.AssetByIPID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asset == nil {
					return fmt.Errorf("asset %s not found", args[0])
				}
				if jsonOut {
					return writeJSON(cmd, asset)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "IP asset %s\n", asset.IPID)
				fmt.Fprintf(out, "  Chain token:  %s\n", asset.ChainTokenID)
				fmt.Fprintf(out, "  Verify token: %s\n", asset.VerificationTokenID)
				fmt.Fprintf(out, "  Tx hash:      %s\n", asset.TxHash)
				fmt.Fprintf(out, "  Verified:     %s (confidence %d)\n", yesNo(asset.Verified), asset.Confidence)
				if asset.Fallback {
					fmt.Fprintln(out, "  Fallback:     verification timed out; synthetic outcome recorded")
				}
				if len(asset.LicenseTermsIDs) > 0 {
					fmt.Fprintf(out, "  Terms:        %s\n", strings.Join(asset.LicenseTermsIDs, ", "))
				}
				if asset.MetadataURL != "" {
					fmt.Fprintf(out, "  Metadata:     %s\n", asset.MetadataURL)
				}
				if asset.ExplorerURL != "" {
					fmt.Fprintf(out, "  Explorer:     %s\n", asset.ExplorerURL)
				}

				children, err := store.LinksByParent(cmd.Context(), asset.IPID)
				if err != nil {
					return err
				}
				if len(children) > 0 {
					fmt.Fprintln(out, "  Derivatives:")
					for _, link := range children {
						fmt.Fprintf(out, "    %s (terms %s)\n", link.ChildIPID, link.LicenseTermsID)
					}
				}
				parents, err := store.LinksByChild(cmd.Context(), asset.IPID)
				if err != nil {
					return err
				}
				if len(parents) > 0 {
					fmt.Fprintln(out, "  Derived from:")
					for _, link := range parents {
						fmt.Fprintf(out, "    %s (terms %s)\n", link.ParentIPID, link.LicenseTermsID)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the asset as JSON")
	return cmd
}
