// Package session owns the single active project: the current timeline,
// silence config, and cached audio samples. Every mutation runs its full
// read-modify-write under one lock, so no two commands interleave.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gaurab-pandey/video-silence-remover/internal/analysis"
	"github.com/gaurab-pandey/video-silence-remover/internal/export"
	"github.com/gaurab-pandey/video-silence-remover/internal/storage"
	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// Static errors for session operations.
var (
	// ErrNoProject is returned when a command arrives before a video has
	// been processed.
	ErrNoProject = errors.New("no project loaded")
	// ErrExportInProgress is returned when an export is requested while
	// another is still running.
	ErrExportInProgress = errors.New("an export is already in progress")
	// ErrInvalidConfig is returned when a config update carries values
	// outside their valid domain.
	ErrInvalidConfig = errors.New("invalid silence config")
)

// Media is the decoding side of the external toolchain.
type Media interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error)
	DecodeWAV(path string) (samples []int, sampleRate, channels int, err error)
}

// Exporter runs a planned export against a timeline snapshot.
type Exporter interface {
	Export(ctx context.Context, t *timeline.Timeline, cfg analysis.SilenceConfig, dest string) (<-chan export.Progress, <-chan error, error)
}

// Outcome is the terminal result of an export.
type Outcome struct {
	// OutputPath is the local path of the finished export.
	OutputPath string
	// VideoURL is the S3 URL when the export was uploaded.
	VideoURL string
	// Err is the terminal error, nil on success.
	Err error
}

// Session holds the process-wide project state. Create one with New and
// share it; all methods are safe for concurrent use.
type Session struct {
	media    Media
	exporter Exporter
	store    storage.Storage
	logger   *slog.Logger

	mu         sync.Mutex
	tl         *timeline.Timeline
	cfg        analysis.SilenceConfig
	samples    []int
	sampleRate int
	exporting  bool
}

// New creates a session with the given collaborators and initial config.
func New(media Media, exporter Exporter, store storage.Storage, cfg analysis.SilenceConfig, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		media:    media,
		exporter: exporter,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// ProcessVideo imports a video: probes its duration, extracts and decodes
// the audio track, runs silence analysis, and replaces the session's
// timeline with the fresh result.
func (s *Session) ProcessVideo(ctx context.Context, videoPath string) (*timeline.Timeline, error) {
	duration, err := s.media.ProbeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video duration: %w", err)
	}
	wavPath, err := s.media.ExtractAudio(ctx, videoPath, s.store.TempDir())
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	samples, sampleRate, channels, err := s.media.DecodeWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	mono := analysis.Downmix(samples, channels)

	s.mu.Lock()
	defer s.mu.Unlock()

	tl, err := analysis.Analyze(mono, sampleRate, duration, videoPath, s.cfg)
	if err != nil {
		return nil, err
	}
	tl.AudioPath = wavPath

	if s.tl != nil && s.tl.AudioPath != "" && s.tl.AudioPath != wavPath {
		if cerr := s.store.CleanupTemp(ctx, []string{s.tl.AudioPath}); cerr != nil {
			s.logger.Warn("cleanup previous audio failed", slog.String("error", cerr.Error()))
		}
	}

	s.tl = tl
	s.samples = mono
	s.sampleRate = sampleRate

	s.logger.Info("video processed",
		slog.String("video", videoPath),
		slog.Float64("duration", duration),
		slog.Int("clips", len(tl.Clips)),
	)
	return tl.Clone(), nil
}

// RerunAnalysis re-runs silence detection on the cached audio with the
// current config and replaces the timeline wholesale. Manual edits made
// since the last analysis are discarded. An in-flight export is not
// affected; it keeps the snapshot it started with.
func (s *Session) RerunAnalysis() (*timeline.Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return nil, ErrNoProject
	}

	tl, err := analysis.Analyze(s.samples, s.sampleRate, s.tl.TotalDuration, s.tl.VideoPath, s.cfg)
	if err != nil {
		return nil, err
	}
	tl.AudioPath = s.tl.AudioPath
	s.tl = tl

	s.logger.Info("analysis rerun",
		slog.Float64("threshold_db", s.cfg.ThresholdDB),
		slog.Float64("min_silence_duration", s.cfg.MinSilenceDuration),
		slog.Int("clips", len(tl.Clips)),
	)
	return tl.Clone(), nil
}

// Timeline returns a snapshot of the current timeline.
func (s *Session) Timeline() (*timeline.Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return nil, ErrNoProject
	}
	return s.tl.Clone(), nil
}

// Config returns the current silence config.
func (s *Session) Config() analysis.SilenceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig replaces the detection settings. Softness is untouched; it
// has its own setter. The new config applies from the next analysis run.
func (s *Session) UpdateConfig(thresholdDB, minSilenceDuration float64) (analysis.SilenceConfig, error) {
	if minSilenceDuration <= 0 {
		return analysis.SilenceConfig{}, fmt.Errorf("%w: min_silence_duration must be positive", ErrInvalidConfig)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ThresholdDB = thresholdDB
	s.cfg.MinSilenceDuration = minSilenceDuration
	return s.cfg, nil
}

// SetSoftness stores the cut softness percentage, clamped to [0, 100].
// Classification is untouched; softness only changes how cuts are rendered
// at export. The clamped config and a timeline snapshot are returned.
func (s *Session) SetSoftness(percent int) (*timeline.Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return nil, ErrNoProject
	}
	s.cfg.SoftnessPercent = analysis.ClampSoftness(percent)
	return s.tl.Clone(), nil
}

// Waveform summarizes the cached audio into peak buckets.
func (s *Session) Waveform(bucketMS int) (*analysis.WaveformData, error) {
	s.mu.Lock()
	samples, sampleRate := s.samples, s.sampleRate
	s.mu.Unlock()
	if len(samples) == 0 {
		return nil, ErrNoProject
	}
	return analysis.Summarize(samples, sampleRate, 1, bucketMS)
}

// ToggleSegment flips the include flag on the clip at index.
func (s *Session) ToggleSegment(index int) (*timeline.Timeline, error) {
	return s.mutate(func(t *timeline.Timeline) error { return t.ToggleInclude(index) })
}

// RemoveSegment deletes the clip at index, absorbing its span into a
// neighbor.
func (s *Session) RemoveSegment(index int) (*timeline.Timeline, error) {
	return s.mutate(func(t *timeline.Timeline) error { return t.Remove(index) })
}

// MergeSegments combines the clip at index with its successor.
func (s *Session) MergeSegments(index int) (*timeline.Timeline, error) {
	return s.mutate(func(t *timeline.Timeline) error { return t.MergeWithNext(index) })
}

// ExcludeSilence marks every silence clip excluded.
func (s *Session) ExcludeSilence() (*timeline.Timeline, error) {
	return s.mutate(func(t *timeline.Timeline) error {
		t.ExcludeSilence()
		return nil
	})
}

// AdjustBoundary moves the boundary between clips index and index+1,
// returning the clamped time that was actually applied.
func (s *Session) AdjustBoundary(index int, newTime float64) (float64, *timeline.Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return 0, nil, ErrNoProject
	}
	clamped, err := s.tl.AdjustBoundary(index, newTime)
	if err != nil {
		return 0, nil, err
	}
	return clamped, s.tl.Clone(), nil
}

// SegmentAt returns the index of the clip containing a source time.
func (s *Session) SegmentAt(sourceTime float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return 0, ErrNoProject
	}
	return s.tl.ClipAt(sourceTime)
}

// mutate runs one editor operation under the session lock and returns a
// snapshot of the result. The operations themselves are transactional, so
// a failed op leaves the stored timeline unchanged.
func (s *Session) mutate(op func(*timeline.Timeline) error) (*timeline.Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl == nil {
		return nil, ErrNoProject
	}
	if err := op(s.tl); err != nil {
		return nil, err
	}
	return s.tl.Clone(), nil
}

// Export starts a background export of the current timeline to dest. It
// snapshots the timeline at call time: edits made while the export runs
// apply to the next export, not this one. A second call while one is in
// flight fails with ErrExportInProgress. When pushToS3 is set the finished
// file is uploaded and the outcome carries its URL.
func (s *Session) Export(ctx context.Context, dest string, pushToS3 bool) (<-chan export.Progress, <-chan Outcome, error) {
	s.mu.Lock()
	if s.tl == nil {
		s.mu.Unlock()
		return nil, nil, ErrNoProject
	}
	if s.exporting {
		s.mu.Unlock()
		return nil, nil, ErrExportInProgress
	}
	snapshot := s.tl.Clone()
	cfg := s.cfg
	s.exporting = true
	s.mu.Unlock()

	progressCh, doneCh, err := s.exporter.Export(ctx, snapshot, cfg, dest)
	if err != nil {
		s.mu.Lock()
		s.exporting = false
		s.mu.Unlock()
		return nil, nil, err
	}

	outcomeCh := make(chan Outcome, 1)
	go func() {
		defer close(outcomeCh)
		runErr := <-doneCh

		var url string
		if runErr == nil && pushToS3 {
			url, runErr = s.uploadExport(ctx, dest)
		}

		s.mu.Lock()
		s.exporting = false
		s.mu.Unlock()

		outcomeCh <- Outcome{OutputPath: dest, VideoURL: url, Err: runErr}
	}()

	return progressCh, outcomeCh, nil
}

// Exporting reports whether an export is currently in flight.
func (s *Session) Exporting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporting
}

func (s *Session) uploadExport(ctx context.Context, dest string) (string, error) {
	f, err := os.Open(dest) // #nosec G304 - dest was just written by the export driver
	if err != nil {
		return "", fmt.Errorf("open export for upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := s.store.UploadToS3(ctx, filepath.Base(dest), f)
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	s.logger.Info("export uploaded", slog.String("url", url))
	return url, nil
}
