package readers

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Kind
	}{
		{"https url", "https://example.com/products", KindWebpage},
		{"http url", "http://example.com", KindWebpage},
		{"uppercase scheme", "HTTP://EXAMPLE.COM/page", KindWebpage},
		{"pdf", "invoice.pdf", KindPDF},
		{"pdf uppercase ext", "/data/report.PDF", KindPDF},
		{"png", "chart.png", KindImage},
		{"jpeg", "photo.JPEG", KindImage},
		{"mp3", "meeting.mp3", KindAudio},
		{"wav", "call.wav", KindAudio},
		{"mp4", "clip.mp4", KindVideo},
		{"mkv", "talk.mkv", KindVideo},
		{"txt", "notes.txt", KindText},
		{"no extension", "README", KindText},
		{"csv falls back to text", "data.csv", KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.input); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello world\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Text(path)
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "hello world\n" {
		t.Errorf("Text() = %q, want %q", got, "hello world\n")
	}
}

func TestText_FileNotFound(t *testing.T) {
	_, err := Text(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "file not found") {
		t.Errorf("error = %q, want it to mention file not found", err)
	}
}

func TestText_Directory(t *testing.T) {
	_, err := Text(t.TempDir())
	if err == nil {
		t.Fatal("expected error for directory")
	}
	if !strings.Contains(err.Error(), "not a file") {
		t.Errorf("error = %q, want it to mention not a file", err)
	}
}

func TestImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 3))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := Image(path)
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	for _, want := range []string{
		"Image file: chart.png",
		"no OCR available",
		"Image size: 2x3",
		"Image format: png",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Image() missing %q in:\n%s", want, got)
		}
	}
}

func TestImage_UnrecognizedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Image(path)
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	if !strings.Contains(got, "Image format: unrecognized") {
		t.Errorf("Image() = %q, want unrecognized format note", got)
	}
	if !strings.Contains(got, "File size: 12 bytes") {
		t.Errorf("Image() = %q, want file size line", got)
	}
}

func TestAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.mp3")
	if err := os.WriteFile(path, []byte("audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Audio(path)
	if err != nil {
		t.Fatalf("Audio() error = %v", err)
	}
	for _, want := range []string{
		"Audio file: meeting.mp3",
		"File size: 11 bytes",
		"File extension: .mp3",
		"--- Transcription ---",
		"[Transcription not available",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Audio() missing %q in:\n%s", want, got)
		}
	}
}

func TestVideo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		source     VideoSource
		wantFrames bool
		wantAudio  bool
	}{
		{"frames only", VideoFrames, true, false},
		{"audio only", VideoAudio, false, true},
		{"both", VideoBoth, true, true},
		{"empty defaults to both", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Video(path, tt.source)
			if err != nil {
				t.Fatalf("Video() error = %v", err)
			}
			if !strings.Contains(got, "Video file: clip.mp4") {
				t.Errorf("Video() missing file name in:\n%s", got)
			}
			if gotFrames := strings.Contains(got, "--- Frame Analysis ---"); gotFrames != tt.wantFrames {
				t.Errorf("frame section present = %v, want %v", gotFrames, tt.wantFrames)
			}
			if gotAudio := strings.Contains(got, "--- Audio Analysis ---"); gotAudio != tt.wantAudio {
				t.Errorf("audio section present = %v, want %v", gotAudio, tt.wantAudio)
			}
		})
	}
}

func TestVideo_InvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Video(path, "pics")
	if err == nil {
		t.Fatal("expected error for invalid source")
	}
	if !strings.Contains(err.Error(), "invalid video source") {
		t.Errorf("error = %q, want invalid source message", err)
	}
}

func TestPDF_FileNotFound(t *testing.T) {
	_, err := PDF(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "file not found") {
		t.Errorf("error = %q, want it to mention file not found", err)
	}
}
