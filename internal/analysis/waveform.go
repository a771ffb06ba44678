package analysis

import (
	"errors"
	"fmt"
)

// ErrBucketTooSmall is returned when the bucket size covers zero samples
// at the given sample rate.
var ErrBucketTooSmall = errors.New("bucket size too small for sample rate")

// WaveformData holds downsampled peak amplitudes for visualization.
// Immutable once computed for a given audio source.
type WaveformData struct {
	// Peaks is one normalized [0,1] peak value per time bucket.
	Peaks []float64 `json:"peaks"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration"`
	// BucketMS is the bucket width in milliseconds.
	BucketMS int `json:"bucket_ms"`
}

// Summarize downsamples raw samples into fixed-size peak buckets. Each
// bucket's value is the maximum absolute amplitude in its window,
// normalized to [0,1]. Multi-channel input is averaged to mono first. The
// final bucket may be partial and is still emitted.
func Summarize(samples []int, sampleRate, channels, bucketMS int) (*WaveformData, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	samplesPerBucket := sampleRate * bucketMS / 1000
	if samplesPerBucket <= 0 {
		return nil, fmt.Errorf("%w: %dms at %dHz", ErrBucketTooSmall, bucketMS, sampleRate)
	}

	mono := Downmix(samples, channels)
	duration := float64(len(mono)) / float64(sampleRate)

	peaks := make([]float64, 0, len(mono)/samplesPerBucket+1)
	for i := 0; i < len(mono); i += samplesPerBucket {
		end := i + samplesPerBucket
		if end > len(mono) {
			end = len(mono)
		}
		maxAbs := 0
		for _, s := range mono[i:end] {
			if s < 0 {
				s = -s
			}
			if s > maxAbs {
				maxAbs = s
			}
		}
		peaks = append(peaks, float64(maxAbs)/maxAmplitude)
	}

	return &WaveformData{
		Peaks:    peaks,
		Duration: duration,
		BucketMS: bucketMS,
	}, nil
}
