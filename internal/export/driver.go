package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurab-pandey/video-silence-remover/internal/analysis"
	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// ErrCancelled is returned when an in-flight export is cancelled by the
// caller.
var ErrCancelled = errors.New("export cancelled")

// Progress is a single export progress event. Percentage is based on
// cumulative output duration processed and is non-decreasing; the final
// event of a successful export is exactly 100.
type Progress struct {
	Percentage    float64 `json:"percentage"`
	CurrentTime   float64 `json:"current_time"`
	TotalDuration float64 `json:"total_duration"`
}

// Encoder is the external encoding capability the driver drives.
type Encoder interface {
	Encode(ctx context.Context, input string, ranges []timeline.Range, dest string, onProgress func(seconds float64)) error
}

// EncoderError reports an encoder failure along with the cut-list that was
// being processed when it failed.
type EncoderError struct {
	Ranges []timeline.Range
	Err    error
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("encoder failed processing %d ranges: %v", len(e.Ranges), e.Err)
}

func (e *EncoderError) Unwrap() error {
	return e.Err
}

// Driver plans and runs exports against an Encoder.
type Driver struct {
	enc    Encoder
	logger *slog.Logger
}

// NewDriver creates a new export driver.
func NewDriver(enc Encoder, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{enc: enc, logger: logger}
}

// Export plans the cut-list for the given timeline snapshot and runs the
// encoder in a background goroutine. Planning failures are returned
// immediately. Otherwise progress events arrive on the first channel and
// exactly one terminal value (nil on success) on the second; both channels
// are closed when the export finishes.
//
// The encoder writes to a hidden scratch file next to dest, which is
// renamed into place only on success, so a failed or cancelled export
// never leaves a partial output at the destination.
func (d *Driver) Export(ctx context.Context, t *timeline.Timeline, cfg analysis.SilenceConfig, dest string) (<-chan Progress, <-chan error, error) {
	plan, err := BuildPlan(t, cfg)
	if err != nil {
		return nil, nil, err
	}

	progressCh := make(chan Progress, 32)
	doneCh := make(chan error, 1)

	d.logger.Info("starting export",
		slog.String("dest", dest),
		slog.Int("ranges", len(plan.Ranges)),
		slog.Float64("output_duration", plan.OutputDuration),
		slog.Int("softness_percent", cfg.SoftnessPercent),
	)

	go func() {
		defer close(progressCh)
		defer close(doneCh)
		doneCh <- d.run(ctx, t.VideoPath, plan, dest, progressCh)
	}()

	return progressCh, doneCh, nil
}

func (d *Driver) run(ctx context.Context, input string, plan *Plan, dest string, progressCh chan<- Progress) error {
	tmp := scratchPath(dest)
	defer func() { _ = os.Remove(tmp) }()

	lastPct := 0.0
	emit := func(sec float64) {
		pct := math.Min(sec/plan.OutputDuration*100, 100)
		if pct < lastPct {
			pct = lastPct
		}
		lastPct = pct
		p := Progress{Percentage: pct, CurrentTime: sec, TotalDuration: plan.OutputDuration}
		// Progress is advisory: drop events rather than stall the encoder
		// behind a slow consumer.
		select {
		case progressCh <- p:
		default:
		}
	}

	if err := d.enc.Encode(ctx, input, plan.Ranges, tmp, emit); err != nil {
		if ctx.Err() != nil {
			d.logger.Info("export cancelled", slog.String("dest", dest))
			return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		d.logger.Error("export failed",
			slog.String("dest", dest),
			slog.String("error", err.Error()),
		)
		return &EncoderError{Ranges: plan.Ranges, Err: err}
	}

	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}

	// Terminal event, blocking so the consumer always sees 100%.
	progressCh <- Progress{Percentage: 100, CurrentTime: plan.OutputDuration, TotalDuration: plan.OutputDuration}
	d.logger.Info("export completed", slog.String("dest", dest))
	return nil
}

// scratchPath returns a hidden sibling of dest with the same extension, so
// the encoder still infers the right container format.
func scratchPath(dest string) string {
	dir, base := filepath.Split(dest)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}
