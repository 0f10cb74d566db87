package metadataprobe

import (
	"github.com/bogem/id3v2/v2"

	"lrcsync/internal/lrcerrors"
)

// EmbedLyrics best-effort writes lyrics text into the file's ID3v2
// unsynchronized-lyrics frame. Containers id3v2 cannot open (non-MP3, or a
// corrupt tag) return a wrapped error the caller is expected to log and
// ignore: embedding is an enrichment, never a reason to fail a track.
func EmbedLyrics(path, lyrics string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return lrcerrors.Wrap(lrcerrors.ErrIO, "metadataprobe", "embed_open", path, err)
	}
	defer tag.Close()

	tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding:          id3v2.EncodingUTF8,
		Language:          "eng",
		ContentDescriptor: "",
		Lyrics:            lyrics,
	})

	if err := tag.Save(); err != nil {
		return lrcerrors.Wrap(lrcerrors.ErrIO, "metadataprobe", "embed_save", path, err)
	}
	return nil
}
