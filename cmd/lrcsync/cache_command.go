package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local lyrics cache",
	}
	cmd.AddCommand(newCacheStatsCommand(ctx))
	cmd.AddCommand(newCacheClearCommand(ctx))
	cmd.AddCommand(newCacheCleanupCommand(ctx))
	return cmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print cache hit-rate and on-disk size statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.ensureResolver()
			if err != nil {
				return err
			}
			stats, err := res.Cache.Stats()
			if err != nil {
				return fmt.Errorf("read cache stats: %w", err)
			}
			if format == "json" {
				return writeJSON(cmd, stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total requests:   %d\n", stats.TotalRequests)
			fmt.Fprintf(cmd.OutOrStdout(), "cache hits:       %d\n", stats.CacheHits)
			fmt.Fprintf(cmd.OutOrStdout(), "hit rate:         %.1f%%\n", stats.HitRatePercent)
			fmt.Fprintf(cmd.OutOrStdout(), "shared misses:    %d\n", stats.SharedMisses)
			fmt.Fprintf(cmd.OutOrStdout(), "local entries:    %d\n", stats.FileEntries)
			fmt.Fprintf(cmd.OutOrStdout(), "local cache size: %s\n", humanize.Bytes(uint64(stats.FileBytes)))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table|json")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard every cached lyrics lookup",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear the cache without --force")
			}
			res, err := ctx.ensureResolver()
			if err != nil {
				return err
			}
			if err := res.Cache.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm discarding every cached entry")
	return cmd
}

func newCacheCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Compact cache shards, dropping expired and superseded entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.ensureResolver()
			if err != nil {
				return err
			}
			if err := res.Cache.Cleanup(); err != nil {
				return fmt.Errorf("cleanup cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache compacted")
			return nil
		},
	}
}
