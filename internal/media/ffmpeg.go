package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// Static errors for toolchain operations.
var (
	// ErrVideoNotFound is returned when the source video does not exist.
	ErrVideoNotFound = errors.New("source video file not found")
	// ErrNoRanges is returned when Encode is called with an empty cut-list.
	ErrNoRanges = errors.New("no ranges to encode")
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// Compile-time check that FFmpeg implements Toolchain.
var _ Toolchain = (*FFmpeg)(nil)

// FFmpeg implements Toolchain using the ffmpeg and ffprobe CLIs.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates a new FFmpeg toolchain. Empty paths default to
// "ffmpeg" and "ffprobe" found via PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// ProbeDuration returns the duration in seconds of a media file using
// ffprobe's format=duration entry.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

// ExtractAudio decodes the audio track of a video to a mono 16-bit PCM WAV
// at 44.1kHz, named <stem>_audio.wav inside outDir.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, videoPath)
	}
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outPath := filepath.Join(outDir, stem+"_audio.wav")

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "1",
		outPath,
	}
	if err := f.runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return outPath, nil
}

// Encode trims the given source ranges out of input and concatenates them
// into dest using a single filter_complex invocation, re-encoding with
// libx264/aac. Progress is read from ffmpeg's machine-readable -progress
// stream on stdout.
func (f *FFmpeg) Encode(ctx context.Context, input string, ranges []timeline.Range, dest string, onProgress func(seconds float64)) error {
	if len(ranges) == 0 {
		return ErrNoRanges
	}
	if _, err := os.Stat(input); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrVideoNotFound, input)
	}

	args := []string{
		"-i", input,
		"-filter_complex", buildFilterComplex(ranges),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-progress", "pipe:1",
		"-y",
		dest,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create progress pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if sec, ok := parseProgressLine(scanner.Text()); ok && onProgress != nil {
			onProgress(sec)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// buildFilterComplex produces the trim/atrim/concat filter graph that
// stitches the given source ranges into continuous output streams.
func buildFilterComplex(ranges []timeline.Range) string {
	var b strings.Builder
	for i, r := range ranges {
		fmt.Fprintf(&b, "[0:v]trim=start=%.6f:end=%.6f,setpts=PTS-STARTPTS[v%d];", r.Start, r.End, i)
	}
	for i, r := range ranges {
		fmt.Fprintf(&b, "[0:a]atrim=start=%.6f:end=%.6f,asetpts=PTS-STARTPTS[a%d];", r.Start, r.End, i)
	}
	for i := range ranges {
		fmt.Fprintf(&b, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=1[outv][outa]", len(ranges))
	return b.String()
}

// parseProgressLine extracts the processed output time in seconds from an
// ffmpeg -progress key=value line.
func parseProgressLine(line string) (float64, bool) {
	val, found := strings.CutPrefix(line, "out_time_us=")
	if !found {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return float64(us) / 1e6, true
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// carrying the stderr output if the command fails.
func (f *FFmpeg) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// FFmpegError represents an error from running ffmpeg, including the
// stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
