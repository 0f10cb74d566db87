package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lrcsync/internal/config"
	"lrcsync/internal/index"
	"lrcsync/internal/scanner"
	"lrcsync/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		initialScan      bool
		debounceSeconds  int
		batchSize        int
		extensions       []string
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a library directory and keep lyrics in sync as files change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			orch, err := ctx.ensureOrchestrator()
			if err != nil {
				return err
			}
			hookManager, err := ctx.ensureHooks()
			if err != nil {
				return err
			}

			targetPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			dirs, err := scanTargets(cmd.Context(), ctx, []string{targetPath})
			if err != nil {
				return err
			}
			dirID := dirs[0].ID

			if initialScan {
				exts := extensions
				if len(exts) == 0 {
					exts = cfg.Scanner.Extensions
				}
				if _, err := scanner.Scan(cmd.Context(), store, dirID, targetPath, logger, scanner.Options{
					Extensions:    exts,
					FFProbeBinary: cfg.FFprobeBinary(),
				}); err != nil {
					return err
				}
			}

			debounce := time.Duration(debounceSeconds) * time.Second
			if debounceSeconds == 0 {
				debounce = time.Duration(cfg.Watch.DebounceSeconds) * time.Second
			}
			size := batchSize
			if size == 0 {
				size = cfg.Watch.BatchSize
			}

			registered, err := store.ListDirectories(cmd.Context())
			if err != nil {
				return fmt.Errorf("list directories: %w", err)
			}
			var watchDirs []index.Directory
			for _, d := range registered {
				if d.ID == dirID {
					watchDirs = append(watchDirs, *d)
				}
			}

			w, err := watcher.New(store, orch, logger, watchDirs, watcher.Options{
				Debounce:          debounce,
				BatchSize:         size,
				QueueCapacity:     cfg.Watch.QueueCapacity,
				ReconcileInterval: time.Duration(cfg.Watch.ReconcileIntervalHrs) * time.Hour,
			})
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			w.Hooks = hookManager

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (debounce=%s batch=%d)\n", targetPath, debounce, size)
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "run a full scan before watching begins")
	cmd.Flags().IntVar(&debounceSeconds, "debounce-seconds", 0, "debounce window in seconds (default from config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "maximum tracks processed per debounce cycle (default from config)")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "audio file extensions to watch (default from config)")
	return cmd
}
