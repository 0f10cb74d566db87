package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lrcsync/internal/config"
	"lrcsync/internal/index"
	"lrcsync/internal/metadataprobe"
	"lrcsync/internal/orchestrator"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fetch <file>",
		Short: "Probe a single file and resolve lyrics for it",
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

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			dir, relPath, err := resolveRegisteredDirectory(cmd.Context(), store, path)
			if err != nil {
				return err
			}

			tags, err := metadataprobe.Probe(cmd.Context(), path, metadataprobe.Options{FFProbeBinary: cfg.FFprobeBinary()})
			if err != nil {
				return err
			}
			trackID, _, err := store.UpsertTrack(cmd.Context(), dir.ID, relPath, tags.ToTrackTags(), time.Now())
			if err != nil {
				return fmt.Errorf("upsert track: %w", err)
			}
			track, err := store.GetTrack(cmd.Context(), trackID)
			if err != nil {
				return err
			}

			pathResolver := func(directoryID int64) (string, bool) {
				if directoryID == dir.ID {
					return dir.Path, true
				}
				return "", false
			}

			var event orchestrator.Event
			_, err = orch.Run(cmd.Context(), []*index.Track{track}, pathResolver,
				orchestrator.Options{DryRun: dryRun, Force: true}, func(e orchestrator.Event) {
					event = e
				})
			if err != nil {
				return err
			}

			if event.Source != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s [%s]\n", path, event.Outcome, event.Source)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, event.Outcome)
			}
			if event.Outcome == "failed" {
				return errDownloadHadFailures
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve without writing a sidecar or transitioning state")
	return cmd
}

// resolveRegisteredDirectory finds the registered library root containing
// path and returns it alongside path's relative position within it.
func resolveRegisteredDirectory(goCtx context.Context, store *index.Store, path string) (*index.Directory, string, error) {
	dirs, err := store.ListDirectories(goCtx)
	if err != nil {
		return nil, "", fmt.Errorf("list directories: %w", err)
	}
	for _, d := range dirs {
		rel, err := filepath.Rel(d.Path, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		return d, rel, nil
	}
	return nil, "", fmt.Errorf("%q is not under any registered directory; run `lrcsync init` on its parent first", path)
}
