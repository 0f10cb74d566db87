package reporttemplate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lrcsync/internal/index"
)

func TestBuildContextComputesCoverage(t *testing.T) {
	tracks := []*index.Track{
		{ID: 1, Artist: "Queen", Album: "A Night at the Opera", LyricState: index.StateSyncedPresent},
		{ID: 2, Artist: "Queen", Album: "Jazz", LyricState: index.StatePlainPresent},
		{ID: 3, Artist: "Daft Punk", Album: "Discovery", LyricState: index.StateNotFound},
	}

	ctx := BuildContext(tracks, nil)

	if ctx.Stats.TotalTracks != 3 {
		t.Fatalf("TotalTracks = %d, want 3", ctx.Stats.TotalTracks)
	}
	if ctx.Stats.WithAnyLyrics != 2 {
		t.Fatalf("WithAnyLyrics = %d, want 2", ctx.Stats.WithAnyLyrics)
	}
	if ctx.Stats.UniqueArtists != 2 {
		t.Fatalf("UniqueArtists = %d, want 2", ctx.Stats.UniqueArtists)
	}
	if got, want := ctx.Stats.CoveragePercent, float64(2)/3*100; got != want {
		t.Fatalf("CoveragePercent = %v, want %v", got, want)
	}
}

func TestRegisterAndRender(t *testing.T) {
	e := NewEngine()
	if err := e.Register(Template{
		Name:    "t1",
		Body:    "{{.Stats.TotalTracks}} tracks, {{formatPercentage .Stats.CoveragePercent 0}} covered",
		Enabled: true,
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	ctx := BuildContext([]*index.Track{
		{ID: 1, LyricState: index.StateSyncedPresent},
		{ID: 2, LyricState: index.StateNotFound},
	}, nil)

	out, err := e.Render("t1", ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := "2 tracks, 50%"; !strings.Contains(out, want) {
		t.Fatalf("Render() = %q, want it to contain %q", out, want)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := NewEngine()
	if _, err := e.Render("missing", Context{}); err == nil {
		t.Fatal("Render() error = nil, want an error for an unregistered template")
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	e := NewEngine()
	if err := e.Load(filepath.Join(t.TempDir(), "templates.toml")); err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}
	if len(e.List()) != 0 {
		t.Fatalf("List() = %v, want empty", e.List())
	}
}

func TestLoadSampleConfigRegistersAllThree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.toml")
	if err := os.WriteFile(path, []byte(SampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewEngine()
	if err := e.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, name := range []string{"library_summary", "track_list", "csv_export"} {
		if _, ok := e.Get(name); !ok {
			t.Fatalf("template %q not registered after Load", name)
		}
	}

	out, err := e.Render("csv_export", BuildContext([]*index.Track{
		{ID: 1, Title: "Bohemian Rhapsody", Artist: "Queen", RelativePath: "queen/a.mp3"},
	}, nil))
	if err != nil {
		t.Fatalf("Render(csv_export) error = %v", err)
	}
	if !strings.Contains(out, "Bohemian Rhapsody") {
		t.Fatalf("Render(csv_export) = %q, want track title present", out)
	}
}

func TestHelperFormatDurationAndTruncate(t *testing.T) {
	if got, want := formatDuration(3725), "1h 02m 05s"; got != want {
		t.Fatalf("formatDuration(3725) = %q, want %q", got, want)
	}
	if got, want := formatDuration(65), "1m 05s"; got != want {
		t.Fatalf("formatDuration(65) = %q, want %q", got, want)
	}
	if got, want := truncateText("Bohemian Rhapsody", 8), "Bohem..."; got != want {
		t.Fatalf("truncateText() = %q, want %q", got, want)
	}
}
