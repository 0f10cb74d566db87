// Package metadataprobe extracts title/artist/album/duration from an audio
// file so the Scanner can populate a Track row. Probing order: embedded ID3
// tags, then an out-of-process ffprobe invocation for duration when tags are
// silent on it, then basename/parent-directory synthesis. Probe does not
// check that the file is readable: a missing or unreadable file gets the
// synthesized fields and a nil error, not a ProbeFailed error.
package metadataprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"lrcsync/internal/index"
	"lrcsync/internal/lrcerrors"
)

// Tags is the probe result used to populate a Track.
type Tags struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	DurationSec float64
}

// ToTrackTags converts a probe result into index.TrackTags.
func (t Tags) ToTrackTags() index.TrackTags {
	return index.TrackTags{
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		AlbumArtist: t.AlbumArtist,
		DurationSec: t.DurationSec,
	}
}

// Executor abstracts running the ffprobe duration oracle for testability, the
// same seam the teacher uses around its own out-of-process tool calls: a real
// implementation shells out, a test implementation returns canned output
// without touching the host.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
}

// Options configures the out-of-process duration oracle.
type Options struct {
	FFProbeBinary string
	// Executor overrides how ffprobe is invoked. Nil uses the real
	// command-line executor; tests inject a fake to drive the JSON-parsing
	// path without requiring ffprobe on the host.
	Executor Executor
}

func (o Options) binary() string {
	if strings.TrimSpace(o.FFProbeBinary) == "" {
		return "ffprobe"
	}
	return o.FFProbeBinary
}

func (o Options) executor() Executor {
	if o.Executor == nil {
		return commandExecutor{}
	}
	return o.Executor
}

// Probe inspects one audio file, preferring embedded tags and falling back
// to ffprobe for duration, then to basename/parent-directory synthesis for
// any field still missing. The returned error is always nil: tag and
// ffprobe failures only leave fields to the fallbacks, and a missing or
// unreadable file is not reported as lrcerrors.ErrProbeFailed.
func Probe(ctx context.Context, path string, opts Options) (Tags, error) {
	tags := readEmbeddedTags(path)

	if tags.DurationSec <= 0 {
		if d, err := probeDurationFFprobe(ctx, opts.executor(), opts.binary(), path); err == nil {
			tags.DurationSec = d
		}
	}

	if tags.Title == "" {
		tags.Title = titleFromBasename(path)
	}
	if tags.Album == "" {
		tags.Album = albumFromParentDir(path)
	}
	if tags.Artist == "" {
		tags.Artist = index.DefaultArtist
	}

	return tags, nil
}

// readEmbeddedTags best-effort reads ID3v2 tags, swallowing any error since
// non-MP3 formats or corrupt tags are an expected, non-fatal case handled by
// the ffprobe and basename fallbacks.
func readEmbeddedTags(path string) Tags {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Tags{}
	}
	defer tag.Close()

	return Tags{
		Title:       strings.TrimSpace(tag.Title()),
		Artist:      strings.TrimSpace(tag.Artist()),
		Album:       strings.TrimSpace(tag.Album()),
		AlbumArtist: strings.TrimSpace(albumArtistFrame(tag)),
	}
}

func albumArtistFrame(tag *id3v2.Tag) string {
	frames := tag.GetFrames(tag.CommonID("Band/Orchestra/Accompaniment"))
	for _, f := range frames {
		if text, ok := f.(id3v2.TextFrame); ok {
			return text.Text
		}
	}
	return ""
}

// ffprobeFormat mirrors the subset of ffprobe's JSON output this package reads.
type ffprobeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeDurationFFprobe runs ffprobe (via the injected Executor) as the
// out-of-process duration oracle when embedded tags carry no usable duration.
func probeDurationFFprobe(ctx context.Context, executor Executor, binary, path string) (float64, error) {
	args := []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "--", path}
	output, err := executor.Run(ctx, binary, args)
	if err != nil {
		return 0, lrcerrors.Wrap(lrcerrors.ErrProbeFailed, "metadataprobe", "ffprobe", path, err)
	}

	var parsed ffprobeFormat
	if err := json.Unmarshal(output, &parsed); err != nil {
		return 0, lrcerrors.Wrap(lrcerrors.ErrProbeFailed, "metadataprobe", "ffprobe_parse", path, err)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64)
	if err != nil || math.IsNaN(value) || value < 0 {
		return 0, lrcerrors.Wrap(lrcerrors.ErrProbeFailed, "metadataprobe", "ffprobe_duration", path, nil)
	}
	return value, nil
}

func titleFromBasename(path string) string {
	base := filepath.Base(path)
	return index.DefaultTitle(base)
}

func albumFromParentDir(path string) string {
	dir := filepath.Dir(path)
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// ProbeFailedError wraps an unreadable-file condition as
// lrcerrors.ErrProbeFailed. Probe and the Scanner do not call it.
func ProbeFailedError(path string, cause error) error {
	return lrcerrors.Wrap(lrcerrors.ErrProbeFailed, "metadataprobe", "probe", fmt.Sprintf("unreadable file %s", path), cause)
}
