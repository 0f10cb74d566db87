package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lrcsync/internal/index"
	"lrcsync/internal/orchestrator"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		trackID       int64
		missingLyrics bool
		artist        string
		album         string
		parallel      int
		dryRun        bool
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Resolve and write lyrics for the selected tracks",
		Long: "Resolve and write lyrics for the selected tracks.\n\n" +
			"--force re-fetches regardless of the current lyric state, overriding " +
			"both skip_tracks_with_synced_lyrics and skip_tracks_with_plain_lyrics.",
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
			resolvePath, err := ctx.pathResolver()
			if err != nil {
				return err
			}

			filter := index.TrackFilter{
				MissingLyrics: missingLyrics,
				Artist:        artist,
				Album:         album,
			}
			if trackID > 0 {
				filter.IDs = []int64{trackID}
			}

			tracks, err := store.ListTracks(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list tracks: %w", err)
			}
			if len(tracks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tracks matched the selection")
				return nil
			}

			opts := orchestrator.Options{
				MaxParallel: parallel,
				DryRun:      dryRun,
				Force:       force,
				SkipSynced:  cfg.Download.SkipTracksWithSynced,
				SkipPlain:   cfg.Download.SkipTracksWithPlain,
				TryEmbed:    cfg.Download.TryEmbedLyrics,
			}
			if opts.MaxParallel == 0 {
				opts.MaxParallel = cfg.Download.Parallel
			}

			summary, err := orch.Run(cmd.Context(), tracks, resolvePath, opts, func(e orchestrator.Event) {
				switch {
				case e.Reason != "":
					fmt.Fprintf(cmd.OutOrStdout(), "track %d: %s (%s)\n", e.TrackID, e.Outcome, e.Reason)
				case e.Source != "":
					fmt.Fprintf(cmd.OutOrStdout(), "track %d: %s [%s]\n", e.TrackID, e.Outcome, e.Source)
				default:
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
			if summary.AnyFailed() {
				return errDownloadHadFailures
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&trackID, "track-id", 0, "download only this track id")
	cmd.Flags().BoolVar(&missingLyrics, "missing-lyrics", false, "restrict to tracks without any lyrics yet")
	cmd.Flags().StringVar(&artist, "artist", "", "restrict to this artist")
	cmd.Flags().StringVar(&album, "album", "", "restrict to this album")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "worker pool size (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve without writing sidecars or transitioning state")
	cmd.Flags().BoolVar(&force, "force", false, "re-fetch regardless of current lyric state")
	return cmd
}
