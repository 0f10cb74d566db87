package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lrcsync/internal/index"
	"lrcsync/internal/reporttemplate"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format       string
		output       string
		missingOnly  bool
		templateName string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the track catalog and its lyric states",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			tracks, err := store.ListTracks(cmd.Context(), index.TrackFilter{MissingLyrics: missingOnly})
			if err != nil {
				return fmt.Errorf("list tracks: %w", err)
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if templateName != "" {
				return renderExportTemplate(ctx, w, templateName, tracks)
			}

			rows := make([]exportRow, 0, len(tracks))
			for _, t := range tracks {
				rows = append(rows, exportRow{
					TrackID:    t.ID,
					Artist:     t.Artist,
					Album:      t.Album,
					Title:      t.Title,
					RelPath:    t.RelativePath,
					LyricState: string(t.LyricState),
				})
			}

			switch strings.ToLower(format) {
			case "json":
				return writeJSONTo(w, rows)
			case "csv", "":
				return writeExportCSV(w, rows)
			default:
				return fmt.Errorf("unsupported export format %q", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv|json (ignored when --template is set)")
	cmd.Flags().StringVar(&output, "output", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&missingOnly, "missing-only", false, "only export tracks without synced or plain lyrics")
	cmd.Flags().StringVar(&templateName, "template", "", "render a registered report template instead of --format (see `lrcsync templates list`)")
	return cmd
}

func renderExportTemplate(ctx *commandContext, w io.Writer, name string, tracks []*index.Track) error {
	engine, err := ctx.ensureTemplates()
	if err != nil {
		return err
	}
	rendered, err := engine.Render(name, reporttemplate.BuildContext(tracks, nil))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

type exportRow struct {
	TrackID    int64  `json:"track_id"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Title      string `json:"title"`
	RelPath    string `json:"relpath"`
	LyricState string `json:"lyric_state"`
}

func writeExportCSV(w io.Writer, rows []exportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"track_id", "artist", "album", "title", "relpath", "lyric_state"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.TrackID, 10),
			r.Artist,
			r.Album,
			r.Title,
			r.RelPath,
			r.LyricState,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
