package source

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// ReadTitle reads the ID3v2 title of an MP3 file, falling back to the file
// name without extension.
func ReadTitle(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title"}})
		if err == nil {
			defer tag.Close()
			if title := strings.TrimSpace(tag.Title()); title != "" {
				return title
			}
		}
	}
	return titleFromPath(path)
}
