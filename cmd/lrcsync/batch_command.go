package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lrcsync/internal/config"
	"lrcsync/internal/index"
	"lrcsync/internal/metadataprobe"
	"lrcsync/internal/orchestrator"
)

// newBatchCommand resolves and writes lyrics for a flat list of file paths,
// one per line, blank lines and lines starting with "#" ignored. Each path
// must already live under a registered directory.
func newBatchCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Resolve lyrics for every file path listed in <file>",
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
			orch, err := ctx.ensureOrchestrator()
			if err != nil {
				return err
			}

			paths, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "batch file has no paths to process")
				return nil
			}

			dirsByID := make(map[int64]*index.Directory)
			tracks := make([]*index.Track, 0, len(paths))
			var failedResolve int

			for _, raw := range paths {
				resolved, err := config.ExpandPath(raw)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", raw, err)
					failedResolve++
					continue
				}
				dir, relPath, err := resolveRegisteredDirectory(cmd.Context(), store, resolved)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", raw, err)
					failedResolve++
					continue
				}
				dirsByID[dir.ID] = dir

				tags, err := metadataprobe.Probe(cmd.Context(), resolved, metadataprobe.Options{FFProbeBinary: cfg.FFprobeBinary()})
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: probe failed: %v\n", raw, err)
					failedResolve++
					continue
				}
				trackID, _, err := store.UpsertTrack(cmd.Context(), dir.ID, relPath, tags.ToTrackTags(), time.Now())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: upsert failed: %v\n", raw, err)
					failedResolve++
					continue
				}
				track, err := store.GetTrack(cmd.Context(), trackID)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", raw, err)
					failedResolve++
					continue
				}
				tracks = append(tracks, track)
			}

			pathResolver := func(directoryID int64) (string, bool) {
				d, ok := dirsByID[directoryID]
				if !ok {
					return "", false
				}
				return d.Path, true
			}

			summary, err := orch.Run(cmd.Context(), tracks, pathResolver,
				orchestrator.Options{DryRun: dryRun, Force: true}, func(e orchestrator.Event) {
					if e.Source != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "track %d: %s [%s]\n", e.TrackID, e.Outcome, e.Source)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "track %d: %s\n", e.TrackID, e.Outcome)
					}
				})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "---")
			for outcome, count := range summary.Counts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", outcome, count)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resolved=%d failed_to_resolve_path=%d\n", len(tracks), failedResolve)
			if summary.AnyFailed() || failedResolve > 0 {
				return errDownloadHadFailures
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve without writing sidecars or transitioning state")
	return cmd
}

func readBatchFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return paths, nil
}
