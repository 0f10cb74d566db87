// Package lyricfile writes lyric sidecar files next to audio tracks. Writes
// are cancellation-safe: content lands in a temp file beside the target,
// fsynced, then renamed into place, so a killed process never leaves a
// partially written .lrc or .txt behind.
package lyricfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InstrumentalMarker is the sole content of a sidecar written for a track
// the catalog marks instrumental.
const InstrumentalMarker = "[au: instrumental]\n"

// Kind identifies which sidecar extension a payload belongs in.
type Kind string

const (
	KindSynced Kind = "lrc"
	KindPlain  Kind = "txt"
)

// SidecarPath returns the path of the Kind sidecar for an audio file,
// replacing the audio extension with ".lrc" or ".txt".
func SidecarPath(audioPath string, kind Kind) string {
	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(audioPath, ext)
	return base + "." + string(kind)
}

// WriteSynced atomically writes synced lyric content to <audio>.lrc.
func WriteSynced(audioPath, content string) error {
	return writeAtomic(SidecarPath(audioPath, KindSynced), content)
}

// WritePlain atomically writes plain lyric content to <audio>.txt.
func WritePlain(audioPath, content string) error {
	return writeAtomic(SidecarPath(audioPath, KindPlain), content)
}

// WriteInstrumental writes the instrumental marker sidecar.
func WriteInstrumental(audioPath string) error {
	return writeAtomic(SidecarPath(audioPath, KindSynced), InstrumentalMarker)
}

// writeAtomic normalizes content to LF line endings, writes it to a sibling
// temp file, fsyncs it, then renames it over the target path. Rename is
// atomic on the same filesystem, so a crash or cancellation mid-write never
// leaves a truncated sidecar visible at the final path.
func writeAtomic(path, content string) error {
	normalized := normalizeLineEndings(content)
	if !strings.HasSuffix(normalized, "\n") {
		normalized += "\n"
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp sidecar: %w", err)
	}

	if _, err := f.WriteString(normalized); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp sidecar: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp sidecar: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp sidecar: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename sidecar into place: %w", err)
	}
	return nil
}

func normalizeLineEndings(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return content
}

// Exists reports whether a Kind sidecar already exists for an audio file.
func Exists(audioPath string, kind Kind) bool {
	_, err := os.Stat(SidecarPath(audioPath, kind))
	return err == nil
}

// Read reads a Kind sidecar's content, if present.
func Read(audioPath string, kind Kind) (string, error) {
	data, err := os.ReadFile(SidecarPath(audioPath, kind))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// IsInstrumental reports whether a synced sidecar is the instrumental marker.
func IsInstrumental(audioPath string) bool {
	content, err := Read(audioPath, KindSynced)
	if err != nil {
		return false
	}
	return strings.TrimSpace(content) == strings.TrimSpace(InstrumentalMarker)
}
