package readers

import (
	"fmt"
	"path/filepath"
	"strings"
)

// VideoSource selects which parts of a video the payload describes.
type VideoSource string

const (
	VideoFrames VideoSource = "frames"
	VideoAudio  VideoSource = "audio"
	VideoBoth   VideoSource = "both"
)

// Audio describes an audio file as text: name, byte size and extension, with
// a transcription placeholder noting that no speech-to-text ran locally.
func Audio(path string) (string, error) {
	info, err := statFile(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Audio file: %s\n", filepath.Base(path))
	fmt.Fprintf(&b, "File size: %d bytes\n", info.Size())
	fmt.Fprintf(&b, "File extension: %s\n", filepath.Ext(path))
	b.WriteString("\n--- Transcription ---\n")
	b.WriteString("[Transcription not available; extraction uses file metadata only]")
	return b.String(), nil
}

// Video describes a video file as text. The source argument shapes which
// analysis sections appear: frame notes, audio track notes, or both.
func Video(path string, source VideoSource) (string, error) {
	switch source {
	case VideoFrames, VideoAudio, VideoBoth:
	case "":
		source = VideoBoth
	default:
		return "", fmt.Errorf("invalid video source %q (valid: frames, audio, both)", source)
	}

	info, err := statFile(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Video file: %s\n", filepath.Base(path))
	fmt.Fprintf(&b, "File size: %d bytes\n", info.Size())

	if source == VideoFrames || source == VideoBoth {
		b.WriteString("\n--- Frame Analysis ---\n")
		b.WriteString("[Frame sampling not available; extraction uses file metadata only]\n")
	}
	if source == VideoAudio || source == VideoBoth {
		b.WriteString("\n--- Audio Analysis ---\n")
		b.WriteString("[Audio track analysis not available; extraction uses file metadata only]\n")
	}
	return b.String(), nil
}
