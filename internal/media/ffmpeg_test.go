package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}
}

// createTestVideo creates a short solid-color video with a sine audio track.
func createTestVideo(t *testing.T, path string, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=blue:s=64x64:d=%.1f", duration),
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%.1f", duration),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-c:a", "aac",
		"-shortest",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\noutput: %s", err, output)
	}
}

func TestNewFFmpeg(t *testing.T) {
	t.Run("default paths", func(t *testing.T) {
		f := NewFFmpeg("", "")
		if f.ffmpegPath != "ffmpeg" {
			t.Errorf("ffmpeg path = %q, want ffmpeg", f.ffmpegPath)
		}
		if f.ffprobePath != "ffprobe" {
			t.Errorf("ffprobe path = %q, want ffprobe", f.ffprobePath)
		}
	})

	t.Run("custom paths", func(t *testing.T) {
		f := NewFFmpeg("/opt/bin/ffmpeg", "/opt/bin/ffprobe")
		if f.ffmpegPath != "/opt/bin/ffmpeg" {
			t.Errorf("ffmpeg path = %q", f.ffmpegPath)
		}
	})
}

func TestBuildFilterComplex(t *testing.T) {
	got := buildFilterComplex([]timeline.Range{{Start: 2, End: 5}, {Start: 8, End: 10}})

	want := "[0:v]trim=start=2.000000:end=5.000000,setpts=PTS-STARTPTS[v0];" +
		"[0:v]trim=start=8.000000:end=10.000000,setpts=PTS-STARTPTS[v1];" +
		"[0:a]atrim=start=2.000000:end=5.000000,asetpts=PTS-STARTPTS[a0];" +
		"[0:a]atrim=start=8.000000:end=10.000000,asetpts=PTS-STARTPTS[a1];" +
		"[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]"
	if got != want {
		t.Errorf("filter graph mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestBuildFilterComplex_SingleRange(t *testing.T) {
	got := buildFilterComplex([]timeline.Range{{Start: 0, End: 1.5}})
	if !strings.HasSuffix(got, "concat=n=1:v=1:a=1[outv][outa]") {
		t.Errorf("unexpected filter graph: %s", got)
	}
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		line   string
		want   float64
		wantOK bool
	}{
		{"out_time_us=1500000", 1.5, true},
		{"out_time_us=0", 0, true},
		{"out_time_us=-1", 0, false},
		{"out_time_us=garbage", 0, false},
		{"frame=120", 0, false},
		{"progress=continue", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseProgressLine(tt.line)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseProgressLine(%q) = %v, %v, want %v, %v", tt.line, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEncode_NoRanges(t *testing.T) {
	f := NewFFmpeg("", "")
	err := f.Encode(context.Background(), "in.mp4", nil, "out.mp4", nil)
	if !errors.Is(err, ErrNoRanges) {
		t.Errorf("error = %v, want ErrNoRanges", err)
	}
}

func TestEncode_MissingInput(t *testing.T) {
	f := NewFFmpeg("", "")
	err := f.Encode(context.Background(), "/nonexistent/in.mp4",
		[]timeline.Range{{Start: 0, End: 1}}, "out.mp4", nil)
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("error = %v, want ErrVideoNotFound", err)
	}
}

func TestExtractAudio_MissingVideo(t *testing.T) {
	f := NewFFmpeg("", "")
	_, err := f.ExtractAudio(context.Background(), "/nonexistent/in.mp4", t.TempDir())
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("error = %v, want ErrVideoNotFound", err)
	}
}

func TestFFmpegError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &FFmpegError{Args: []string{"-i", "in.mp4"}, Stderr: "boom", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("FFmpegError should unwrap to its cause")
	}
	msg := err.Error()
	for _, part := range []string{"exit status 1", "in.mp4", "boom"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message %q missing %q", msg, part)
		}
	}
}

func TestProbeDuration(t *testing.T) {
	skipIfNoFFmpeg(t)
	video := filepath.Join(t.TempDir(), "test.mp4")
	createTestVideo(t, video, 2.0)

	f := NewFFmpeg("", "")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	duration, err := f.ProbeDuration(ctx, video)
	if err != nil {
		t.Fatalf("ProbeDuration() error = %v", err)
	}
	if duration < 1.5 || duration > 2.5 {
		t.Errorf("duration = %v, want ~2.0", duration)
	}
}

func TestExtractAudioAndDecode(t *testing.T) {
	skipIfNoFFmpeg(t)
	tmpDir := t.TempDir()
	video := filepath.Join(tmpDir, "test.mp4")
	createTestVideo(t, video, 1.0)

	f := NewFFmpeg("", "")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wavPath, err := f.ExtractAudio(ctx, video, tmpDir)
	if err != nil {
		t.Fatalf("ExtractAudio() error = %v", err)
	}
	if filepath.Base(wavPath) != "test_audio.wav" {
		t.Errorf("wav path = %q, want test_audio.wav", filepath.Base(wavPath))
	}

	samples, sampleRate, channels, err := f.DecodeWAV(wavPath)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if sampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", sampleRate)
	}
	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
	// A 440Hz sine should fill roughly one second of samples.
	if len(samples) < 40000 {
		t.Errorf("sample count = %d, want ~44100", len(samples))
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	skipIfNoFFmpeg(t)
	tmpDir := t.TempDir()
	video := filepath.Join(tmpDir, "test.mp4")
	createTestVideo(t, video, 3.0)
	dest := filepath.Join(tmpDir, "out.mp4")

	f := NewFFmpeg("", "")
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var progressSeen bool
	err := f.Encode(ctx, video, []timeline.Range{{Start: 0, End: 1}, {Start: 2, End: 3}}, dest,
		func(float64) { progressSeen = true })
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !progressSeen {
		t.Error("no progress callbacks received")
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output is empty")
	}

	duration, err := f.ProbeDuration(ctx, dest)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if duration < 1.5 || duration > 2.6 {
		t.Errorf("output duration = %v, want ~2.0", duration)
	}
}
