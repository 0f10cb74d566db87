package metadataprobe

import (
	"context"
	"errors"
	"testing"
)

type fakeExecutor struct {
	output []byte
	err    error
	calls  int
	args   [][]string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	f.calls++
	f.args = append(f.args, append([]string(nil), args...))
	return f.output, f.err
}

func TestProbeFallsBackToBasenameAndParentDir(t *testing.T) {
	tags, err := Probe(context.Background(), "/music/Abbey Road/Come Together.flac", Options{FFProbeBinary: "definitely-not-a-real-binary"})
	if err != nil {
		t.Fatalf("Probe() error = %v, want nil (probe never fails fatally)", err)
	}
	if tags.Title != "Come Together" {
		t.Fatalf("Title = %q, want basename fallback", tags.Title)
	}
	if tags.Album != "Abbey Road" {
		t.Fatalf("Album = %q, want parent dir fallback", tags.Album)
	}
	if tags.Artist != "Unknown Artist" {
		t.Fatalf("Artist = %q, want default fallback", tags.Artist)
	}
}

func TestReadEmbeddedTagsSwallowsUnreadableFile(t *testing.T) {
	tags := readEmbeddedTags("/nonexistent/path/song.mp3")
	if tags != (Tags{}) {
		t.Fatalf("readEmbeddedTags() = %+v, want zero value for unreadable file", tags)
	}
}

func TestTitleFromBasenameStripsExtension(t *testing.T) {
	if got := titleFromBasename("/a/b/My Song.wav"); got != "My Song" {
		t.Fatalf("titleFromBasename() = %q, want %q", got, "My Song")
	}
}

func TestProbeDurationFFprobeParsesJSONSuccess(t *testing.T) {
	fake := &fakeExecutor{output: []byte(`{"format":{"duration":"355.123456"}}`)}

	got, err := probeDurationFFprobe(context.Background(), fake, "ffprobe", "/music/song.flac")
	if err != nil {
		t.Fatalf("probeDurationFFprobe() error = %v", err)
	}
	if got != 355.123456 {
		t.Fatalf("probeDurationFFprobe() = %v, want 355.123456", got)
	}
	if fake.calls != 1 {
		t.Fatalf("executor calls = %d, want 1", fake.calls)
	}
}

func TestProbeDurationFFprobeRejectsNaN(t *testing.T) {
	fake := &fakeExecutor{output: []byte(`{"format":{"duration":"nan"}}`)}

	if _, err := probeDurationFFprobe(context.Background(), fake, "ffprobe", "/music/song.flac"); err == nil {
		t.Fatal("probeDurationFFprobe() error = nil, want rejection of NaN duration")
	}
}

func TestProbeDurationFFprobeRejectsNegative(t *testing.T) {
	fake := &fakeExecutor{output: []byte(`{"format":{"duration":"-1.0"}}`)}

	if _, err := probeDurationFFprobe(context.Background(), fake, "ffprobe", "/music/song.flac"); err == nil {
		t.Fatal("probeDurationFFprobe() error = nil, want rejection of negative duration")
	}
}

func TestProbeUsesInjectedExecutorForDuration(t *testing.T) {
	fake := &fakeExecutor{output: []byte(`{"format":{"duration":"200.5"}}`)}

	tags, err := Probe(context.Background(), "/music/Abbey Road/Come Together.flac", Options{Executor: fake})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if tags.DurationSec != 200.5 {
		t.Fatalf("Probe() DurationSec = %v, want 200.5 from injected executor", tags.DurationSec)
	}
	if fake.calls != 1 {
		t.Fatalf("executor calls = %d, want 1", fake.calls)
	}
}

func TestProbeDurationFFprobeWrapsExecutorError(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("exit status 1")}

	if _, err := probeDurationFFprobe(context.Background(), fake, "ffprobe", "/music/song.flac"); err == nil {
		t.Fatal("probeDurationFFprobe() error = nil, want wrapped executor error")
	}
}
