package media

import (
	"path/filepath"
	"strings"
)

// Kind says how a file's audio is obtained.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNative files are decoded in-process.
	KindNative
	// KindContainer files are demuxed by ffmpeg.
	KindContainer
	// KindRaw files are headerless PCM whose format is supplied by the caller.
	KindRaw
)

var nativeExts = map[string]bool{
	".wav":  true,
	".flac": true,
	".mp3":  true,
	".ogg":  true,
}

var containerExts = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".mts":  true,
	".ts":   true,
	".aac":  true,
	".m4a":  true,
	".m4b":  true,
}

var rawExts = map[string]bool{
	".pcm": true,
	".raw": true,
}

// KindOf classifies path by extension.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case nativeExts[ext]:
		return KindNative
	case containerExts[ext]:
		return KindContainer
	case rawExts[ext]:
		return KindRaw
	}
	return KindUnknown
}

// IsSupportedExt returns true if the extension can be analyzed.
func IsSupportedExt(ext string) bool {
	return KindOf("x"+ext) != KindUnknown
}

// IsVideoExt returns true if files with this extension usually carry a video
// stream whose frame rate can be probed.
func IsVideoExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".mp4", ".m4v", ".mov", ".mkv", ".avi", ".webm", ".mts", ".ts":
		return true
	}
	return false
}

// SupportedExtsList returns a human-readable list of supported formats.
func SupportedExtsList() string {
	return ".mp4, .mov, .mkv, .avi, .webm, .m4v, .mts, .ts, .wav, .flac, .mp3, .ogg, .aac, .m4a, .m4b, .pcm, .raw"
}
