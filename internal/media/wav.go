package media

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when a file is not a decodable WAV.
var ErrInvalidWAV = errors.New("invalid WAV file")

// DecodeWAV reads a WAV file into interleaved integer samples along with
// its sample rate and channel count.
func (f *FFmpeg) DecodeWAV(path string) ([]int, int, int, error) {
	file, err := os.Open(path) // #nosec G304 - path is produced by ExtractAudio
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open WAV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode WAV samples: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, 0, fmt.Errorf("%w: no samples in %s", ErrInvalidWAV, path)
	}

	return buf.Data, buf.Format.SampleRate, buf.Format.NumChannels, nil
}
