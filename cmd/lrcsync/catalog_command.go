package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lrcsync/internal/fileutil"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the read-only local lyrics catalog snapshot",
	}
	cmd.AddCommand(newCatalogImportCommand(ctx))
	cmd.AddCommand(newCatalogPathCommand(ctx))
	return cmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import <snapshot-file>",
		Short: "Copy a downloaded local-catalog snapshot into place with integrity verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dst := cfg.Paths.LocalCatalogPath
			if dst == "" {
				return fmt.Errorf("paths.local_catalog_path is not configured; set it with `lrcsync config set paths.local_catalog_path <path>`")
			}
			if !force {
				if _, err := os.Stat(dst); err == nil {
					return fmt.Errorf("a catalog snapshot already exists at %s (use --force to overwrite)", dst)
				}
			}
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return fmt.Errorf("create catalog directory: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "copying %s -> %s (sha256 + size verified)\n", args[0], dst)
			if err := fileutil.CopyFileVerified(args[0], dst); err != nil {
				return fmt.Errorf("import catalog snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "catalog snapshot verified and installed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing catalog snapshot")
	return cmd
}

func newCatalogPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configured local catalog snapshot path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LocalCatalogPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "paths.local_catalog_path is not configured")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Paths.LocalCatalogPath)
			if _, err := os.Stat(cfg.Paths.LocalCatalogPath); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "(no snapshot installed yet; use `lrcsync catalog import`)")
			}
			return nil
		},
	}
}
