// Package media provides the external toolchain adapters: ffmpeg and
// ffprobe invoked as subprocesses, plus WAV sample decoding. The rest of
// the system treats these as fallible black boxes behind the Toolchain
// interface.
package media

import (
	"context"

	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// Toolchain defines the media capabilities the core depends on.
type Toolchain interface {
	// ProbeDuration returns the duration in seconds of a media file.
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// ExtractAudio decodes a video's audio track to a mono 16-bit 44.1kHz
	// WAV file in outDir and returns its path.
	ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error)

	// DecodeWAV reads a WAV file into interleaved integer samples.
	DecodeWAV(path string) (samples []int, sampleRate, channels int, err error)

	// Encode stitches the given source ranges of input into dest as a
	// single composed instruction. onProgress is called with the output
	// seconds processed as the encoder reports progress.
	Encode(ctx context.Context, input string, ranges []timeline.Range, dest string, onProgress func(seconds float64)) error
}
