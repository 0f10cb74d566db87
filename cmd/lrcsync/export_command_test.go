package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteExportCSVColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	rows := []exportRow{
		{TrackID: 1, Artist: "A", Album: "B", Title: "C", RelPath: "a/c.flac", LyricState: "synced_present"},
	}
	if err := writeExportCSV(&buf, rows); err != nil {
		t.Fatalf("writeExportCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (header + 1 row)", len(lines))
	}
	if lines[0] != "track_id,artist,album,title,relpath,lyric_state" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "1,A,B,C,a/c.flac,synced_present" {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestWriteExportCSVEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	if err := writeExportCSV(&buf, nil); err != nil {
		t.Fatalf("writeExportCSV() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "track_id,artist,album,title,relpath,lyric_state" {
		t.Fatalf("got %q, want header only", buf.String())
	}
}
