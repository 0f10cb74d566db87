package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lrcsync/internal/fuzzymatch"
	"lrcsync/internal/reporttemplate"
)

type searchHit struct {
	Source   string  `json:"source"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration float64 `json:"duration_seconds"`
	Synced   bool    `json:"synced"`
	Score    float64 `json:"score"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		artist     string
		album      string
		duration   float64
		limit      int
		format     string
		syncedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Query the remote catalog and local catalog without persisting anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.ensureResolver()
			if err != nil {
				return err
			}

			q := fuzzymatch.Query{Title: args[0], Artist: artist, Album: album, DurationSeconds: duration}

			var hits []searchHit
			if remoteResults, err := res.Remote.Search(cmd.Context(), args[0], artist, album); err == nil {
				for _, r := range remoteResults {
					hits = append(hits, searchHit{
						Source: "api", Title: r.TrackName, Artist: r.ArtistName, Album: r.AlbumName,
						Duration: r.Duration, Synced: r.SyncedLyrics != "",
						Score: fuzzymatch.Score(q, fuzzymatch.Candidate{
							Title: r.TrackName, Artist: r.ArtistName, Album: r.AlbumName,
							DurationSeconds: r.Duration, Synced: r.SyncedLyrics != "",
						}),
					})
				}
			}
			if res.Catalog != nil {
				for _, scored := range res.Catalog.Search(q, 0.2, limit) {
					hits = append(hits, searchHit{
						Source: "db", Title: scored.Candidate.Title, Artist: scored.Candidate.Artist,
						Album: scored.Candidate.Album, Duration: scored.Candidate.DurationSeconds,
						Synced: scored.Candidate.Synced, Score: scored.Score,
					})
				}
			}

			if syncedOnly {
				filtered := hits[:0]
				for _, h := range hits {
					if h.Synced {
						filtered = append(filtered, h)
					}
				}
				hits = filtered
			}
			sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
			if limit > 0 && len(hits) > limit {
				hits = hits[:limit]
			}

			if name, ok := strings.CutPrefix(format, "template:"); ok {
				return renderSearchTemplate(ctx, cmd, hits, name)
			}
			return renderSearchHits(cmd, hits, format)
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "restrict/bias toward this artist")
	cmd.Flags().StringVar(&album, "album", "", "restrict/bias toward this album")
	cmd.Flags().Float64Var(&duration, "duration", 0, "expected track duration in seconds")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results to return")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table|json|detailed|template:<name> (see `lrcsync templates list`)")
	cmd.Flags().BoolVar(&syncedOnly, "synced-only", false, "only show results with synced lyrics")
	return cmd
}

func renderSearchTemplate(ctx *commandContext, cmd *cobra.Command, hits []searchHit, name string) error {
	engine, err := ctx.ensureTemplates()
	if err != nil {
		return err
	}
	views := make([]reporttemplate.TrackView, 0, len(hits))
	for _, h := range hits {
		views = append(views, reporttemplate.TrackView{
			Title:     h.Title,
			Artist:    h.Artist,
			Album:     h.Album,
			Duration:  h.Duration,
			HasSynced: h.Synced,
		})
	}
	rendered, err := engine.Render(name, reporttemplate.ContextFromViews(views, map[string]any{"source": "search"}))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

func renderSearchHits(cmd *cobra.Command, hits []searchHit, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(cmd, hits)
	case "detailed":
		for _, h := range hits {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s - %s (%s)  synced=%s  score=%.3f\n",
				h.Source, h.Artist, h.Title, h.Album, yesNo(h.Synced), h.Score)
		}
		return nil
	default:
		headers := []string{"source", "title", "artist", "album", "synced", "score"}
		rows := make([][]string, 0, len(hits))
		for _, h := range hits {
			rows = append(rows, []string{
				h.Source, h.Title, h.Artist, h.Album, yesNo(h.Synced), fmt.Sprintf("%.3f", h.Score),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTableTo(cmd.OutOrStdout(), headers, rows, nil))
		return nil
	}
}
