package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"lrcsync/internal/config"
	"lrcsync/internal/hooks"
	"lrcsync/internal/logging"
	"lrcsync/internal/scanner"
)

var (
	errScanHadFailures     = errors.New("one or more files failed to probe")
	errDownloadHadFailures = errors.New("one or more tracks failed to resolve")
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Walk registered directories and probe new or changed files",
		Args:  cobra.MaximumNArgs(1),
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

			dirs, err := scanTargets(cmd.Context(), ctx, args)
			if err != nil {
				return err
			}

			hookManager, err := ctx.ensureHooks()
			if err != nil {
				return err
			}

			opts := scanner.Options{
				Force:         force,
				Extensions:    cfg.Scanner.Extensions,
				FFProbeBinary: cfg.FFprobeBinary(),
			}

			hookManager.Fire(cmd.Context(), hooks.EventPreScan, hooks.Context{Metadata: map[string]any{"directories": len(dirs)}})

			var totalScanned, totalNew, totalUpdated, totalFailed int
			for _, dir := range dirs {
				sampler := logging.NewProgressSampler(10)
				dirOpts := opts
				dirOpts.ProgressFunc = func(relPath string, done, total int) {
					percent := -1.0
					if total > 0 {
						percent = float64(done) / float64(total) * 100
					}
					if !sampler.ShouldLog(percent, "scan", relPath) {
						return
					}
					logger.Debug("scan progress",
						slog.String(logging.FieldProgressStage, "scan"),
						slog.Float64(logging.FieldProgressPercent, percent),
						slog.String(logging.FieldProgressMessage, relPath),
					)
				}
				summary, err := scanner.Scan(cmd.Context(), store, dir.ID, dir.Path, logger, dirOpts)
				if err != nil {
					return err
				}
				totalScanned += summary.Scanned
				totalNew += summary.New
				totalUpdated += summary.Updated
				totalFailed += summary.Failed
			}

			hookManager.Fire(cmd.Context(), hooks.EventPostScan, hooks.Context{Metadata: map[string]any{
				"scanned": totalScanned, "new": totalNew, "updated": totalUpdated, "failed": totalFailed,
			}})

			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d new=%d updated=%d failed=%d\n",
				totalScanned, totalNew, totalUpdated, totalFailed)
			if totalFailed > 0 {
				return errScanHadFailures
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the mtime short-circuit and re-probe every file")
	return cmd
}

// scanTargets resolves the directories a scan/watch invocation should
// operate on: either the single directory named on the command line
// (expanded and matched against the Index's registered roots) or every
// registered directory when none is given.
func scanTargets(goCtx context.Context, ctx *commandContext, args []string) ([]*dirTarget, error) {
	store, err := ctx.ensureStore()
	if err != nil {
		return nil, err
	}
	all, err := store.ListDirectories(goCtx)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}

	if len(args) == 0 {
		out := make([]*dirTarget, 0, len(all))
		for _, d := range all {
			out = append(out, &dirTarget{ID: d.ID, Path: d.Path})
		}
		return out, nil
	}

	target, err := config.ExpandPath(args[0])
	if err != nil {
		return nil, fmt.Errorf("resolve directory: %w", err)
	}
	for _, d := range all {
		if d.Path == target {
			return []*dirTarget{{ID: d.ID, Path: d.Path}}, nil
		}
	}
	return nil, fmt.Errorf("directory %q is not registered; run `lrcsync init %s` first", target, args[0])
}

type dirTarget struct {
	ID   int64
	Path string
}
