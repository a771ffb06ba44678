// Package analysis converts decoded audio samples into a silence/content
// partition and downsampled waveform peaks. Both entry points are pure
// functions of their inputs: identical samples and config always produce
// identical results.
package analysis

// SilenceConfig controls silence classification and export-time padding.
type SilenceConfig struct {
	// ThresholdDB is the amplitude cutoff in dBFS below which a window is
	// considered silent.
	ThresholdDB float64 `json:"threshold_db"`
	// MinSilenceDuration is the minimum run length in seconds for a quiet
	// stretch to count as silence. Shorter dips stay content.
	MinSilenceDuration float64 `json:"min_silence_duration"`
	// SoftnessPercent (0-100) controls how much of each cut-adjacent
	// silence is retained at export time to avoid audible clicks. It does
	// not affect classification.
	SoftnessPercent int `json:"softness_percent"`
}

// DefaultSilenceConfig returns the default detection settings.
func DefaultSilenceConfig() SilenceConfig {
	return SilenceConfig{
		ThresholdDB:        -35.0,
		MinSilenceDuration: 0.3,
		SoftnessPercent:    0,
	}
}

// ClampSoftness bounds a softness percentage to [0, 100].
func ClampSoftness(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
