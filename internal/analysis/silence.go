package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// Static errors for audio analysis.
var (
	// ErrEmptySignal is returned when the audio signal has no samples.
	ErrEmptySignal = errors.New("audio signal is empty")
	// ErrInvalidSampleRate is returned when the sample rate is not positive.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

const (
	// rmsWindowSeconds is the analysis window length. 10ms windows are
	// short enough to localise cut points and long enough for a stable RMS.
	rmsWindowSeconds = 0.01
	// maxAmplitude is the full-scale amplitude of 16-bit PCM.
	maxAmplitude = 32768.0
)

// DetectSilence scans a mono amplitude signal and returns the ordered
// silence ranges. A window is silent when its RMS falls below the dB
// threshold; quiet runs shorter than MinSilenceDuration are folded back
// into content.
func DetectSilence(samples []int, sampleRate int, cfg SilenceConfig) ([]timeline.Range, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	windowSize := int(float64(sampleRate) * rmsWindowSeconds)
	if windowSize == 0 {
		windowSize = 1
	}
	threshold := maxAmplitude * math.Pow(10, cfg.ThresholdDB/20)

	var ranges []timeline.Range
	silenceStart := -1.0
	for i := 0; i < len(samples); i += windowSize {
		end := i + windowSize
		if end > len(samples) {
			end = len(samples)
		}
		t := float64(i) / float64(sampleRate)
		silent := rms(samples[i:end]) < threshold

		switch {
		case silent && silenceStart < 0:
			silenceStart = t
		case !silent && silenceStart >= 0:
			if t-silenceStart >= cfg.MinSilenceDuration {
				ranges = append(ranges, timeline.Range{Start: silenceStart, End: t})
			}
			silenceStart = -1
		}
	}

	// Silence running to the end of the signal.
	if silenceStart >= 0 {
		end := float64(len(samples)) / float64(sampleRate)
		if end-silenceStart >= cfg.MinSilenceDuration {
			ranges = append(ranges, timeline.Range{Start: silenceStart, End: end})
		}
	}

	return ranges, nil
}

// Analyze runs silence detection and builds a fresh timeline partitioning
// [0, totalDuration) into alternating content and silence clips. The config
// is taken by value and never mutated.
func Analyze(samples []int, sampleRate int, totalDuration float64, videoPath string, cfg SilenceConfig) (*timeline.Timeline, error) {
	ranges, err := DetectSilence(samples, sampleRate, cfg)
	if err != nil {
		return nil, err
	}
	tl, err := timeline.New(totalDuration, videoPath)
	if err != nil {
		return nil, err
	}
	tl.SplitBySilence(ranges)
	return tl, nil
}

// Downmix averages interleaved multi-channel samples to mono. Mono input
// is returned unchanged.
func Downmix(samples []int, channels int) []int {
	if channels <= 1 {
		return samples
	}
	mono := make([]int, 0, len(samples)/channels)
	for i := 0; i+channels <= len(samples); i += channels {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += samples[i+c]
		}
		mono = append(mono, sum/channels)
	}
	return mono
}

// rms computes the root mean square amplitude of a sample window.
func rms(window []int) float64 {
	if len(window) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range window {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(window)))
}
