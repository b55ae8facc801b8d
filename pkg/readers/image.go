package readers

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Image describes an image file as text: name, dimensions, format and byte
// size. No OCR is performed, and the payload says so, so the model does not
// invent pixel content.
func Image(path string) (string, error) {
	info, err := statFile(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Image file: %s (no OCR available, metadata only)\n", filepath.Base(path))
	fmt.Fprintf(&b, "File size: %d bytes\n", info.Size())

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		// Unsupported encodings still yield a usable metadata payload.
		b.WriteString("Image format: unrecognized\n")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "Image size: %dx%d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(&b, "Image format: %s\n", format)
	return b.String(), nil
}
