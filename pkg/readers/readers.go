// Package readers turns source documents into plain text for extraction.
//
// Each reader accepts a local file path (or URL for Webpage) and returns a
// single text payload describing the source. Missing files and unreadable
// sources are reported here, before any extraction work starts. Readers
// never call the model themselves.
package readers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies which reader handles a source.
type Kind string

const (
	KindText    Kind = "text"
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
	KindAudio   Kind = "audio"
	KindVideo   Kind = "video"
	KindWebpage Kind = "webpage"
)

// Detect picks a reader kind from a path or URL. HTTP and HTTPS URLs map to
// the webpage reader; everything else is decided by file extension, falling
// back to plain text.
func Detect(pathOrURL string) Kind {
	lower := strings.ToLower(pathOrURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return KindWebpage
	}

	switch strings.ToLower(filepath.Ext(pathOrURL)) {
	case ".pdf":
		return KindPDF
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return KindImage
	case ".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac":
		return KindAudio
	case ".mp4", ".avi", ".mov", ".mkv", ".webm":
		return KindVideo
	default:
		return KindText
	}
}

// Text reads a plain text file.
func Text(path string) (string, error) {
	if _, err := statFile(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// statFile resolves a path to a regular file, normalizing the not-found case.
func statFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a file: %s", path)
	}
	return info, nil
}
