package audio

import (
	"github.com/bogem/id3v2"
)

// TagMeta holds the ID3 metadata written to generated MP3s
type TagMeta struct {
	Title    string // input stem; always set by the pipeline
	Album    string // from config, optional
	Artist   string // from config, optional
	Composer string // from config, optional
}

// Tagger writes ID3 tags to generated MP3 files
type Tagger struct{}

// NewTagger creates a new tagger
func NewTagger() *Tagger {
	return &Tagger{}
}

// Tag writes the metadata to the MP3 at path. Existing frames for the
// same fields are replaced; other frames are kept.
func (t *Tagger) Tag(path string, meta TagMeta) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetTitle(meta.Title)
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}
	if meta.Artist != "" {
		tag.SetArtist(meta.Artist)
	}
	if meta.Composer != "" {
		tag.AddTextFrame("TCOM", id3v2.EncodingUTF8, meta.Composer)
	}

	return tag.Save()
}
