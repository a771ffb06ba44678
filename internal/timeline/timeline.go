package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Static errors for timeline operations.
var (
	// ErrIndexOutOfRange is returned when an editor operation addresses a
	// clip index that does not exist, or would leave the clip list empty.
	ErrIndexOutOfRange = errors.New("segment index out of range")
	// ErrInvalidOperation is returned when an operation is structurally
	// impossible, such as merging the last clip with its successor.
	ErrInvalidOperation = errors.New("invalid segment operation")
	// ErrInvalidDuration is returned when a timeline is created with a
	// non-positive total duration.
	ErrInvalidDuration = errors.New("total duration must be positive")
)

const (
	// boundaryEpsilon is the minimum duration either clip keeps when the
	// shared boundary between two clips is dragged.
	boundaryEpsilon = 0.01
	// timeTolerance absorbs floating point drift when checking that
	// adjacent clips line up exactly.
	timeTolerance = 1e-6
)

// Range is a half-open (start, end) span in source time, in seconds.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the range in seconds.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// Timeline is the ordered partition of a video's duration into clips.
// The zero value is not usable; create one with New.
type Timeline struct {
	// Clips is the ordered, gap-free clip sequence covering [0, TotalDuration).
	Clips []Clip `json:"clips"`
	// TotalDuration is the source video duration in seconds.
	TotalDuration float64 `json:"total_duration"`
	// VideoPath is the path to the source video file.
	VideoPath string `json:"video_path"`
	// AudioPath is the path to the extracted WAV audio, if any.
	AudioPath string `json:"audio_path,omitempty"`
	// RawSilenceRanges retains the analyzer's unmodified silence output
	// so the caller can display it independently of later edits.
	RawSilenceRanges []Range `json:"raw_silence_ranges"`
}

// New creates a timeline with a single content clip spanning the whole video.
func New(totalDuration float64, videoPath string) (*Timeline, error) {
	if totalDuration <= 0 {
		return nil, fmt.Errorf("%w: %.3f", ErrInvalidDuration, totalDuration)
	}
	return &Timeline{
		Clips:         []Clip{NewClip(0, totalDuration, false)},
		TotalDuration: totalDuration,
		VideoPath:     videoPath,
	}, nil
}

// Clone returns a deep copy of the timeline.
func (t *Timeline) Clone() *Timeline {
	clips := make([]Clip, len(t.Clips))
	copy(clips, t.Clips)
	var ranges []Range
	if t.RawSilenceRanges != nil {
		ranges = make([]Range, len(t.RawSilenceRanges))
		copy(ranges, t.RawSilenceRanges)
	}
	return &Timeline{
		Clips:            clips,
		TotalDuration:    t.TotalDuration,
		VideoPath:        t.VideoPath,
		AudioPath:        t.AudioPath,
		RawSilenceRanges: ranges,
	}
}

// SplitBySilence rebuilds the clip list from detected silence ranges,
// producing alternating content and silence clips that cover the full
// duration with no gaps. Ranges outside [0, TotalDuration) are clamped
// and empty ranges dropped.
func (t *Timeline) SplitBySilence(ranges []Range) {
	t.RawSilenceRanges = make([]Range, len(ranges))
	copy(t.RawSilenceRanges, ranges)

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	clips := make([]Clip, 0, 2*len(sorted)+1)
	cursor := 0.0
	for _, r := range sorted {
		start := math.Max(r.Start, cursor)
		end := math.Min(r.End, t.TotalDuration)
		if end-start <= 0 {
			continue
		}
		if start-cursor > 0 {
			clips = append(clips, NewClip(cursor, start, false))
		}
		clips = append(clips, NewClip(start, end, true))
		cursor = end
	}
	if t.TotalDuration-cursor > 0 {
		clips = append(clips, NewClip(cursor, t.TotalDuration, false))
	}
	if len(clips) == 0 {
		clips = append(clips, NewClip(0, t.TotalDuration, false))
	}

	t.Clips = clips
	t.recalculate()
}

// recalculate recomputes the output-timeline projection. Included clips
// advance the cumulative position; excluded clips collapse to zero width.
func (t *Timeline) recalculate() {
	pos := 0.0
	for i := range t.Clips {
		c := &t.Clips[i]
		c.TimelineStart = pos
		if c.Include {
			pos += c.Duration()
		}
		c.TimelineEnd = pos
	}
}

// Validate checks the full invariant set: a non-empty, sorted, gap-free
// partition of [0, TotalDuration) with strictly positive clip durations
// and a consistent monotonic projection.
func (t *Timeline) Validate() error {
	if len(t.Clips) == 0 {
		return errors.New("timeline has no clips")
	}
	if math.Abs(t.Clips[0].SourceStart) > timeTolerance {
		return fmt.Errorf("first clip starts at %.6f, want 0", t.Clips[0].SourceStart)
	}
	last := len(t.Clips) - 1
	if math.Abs(t.Clips[last].SourceEnd-t.TotalDuration) > timeTolerance {
		return fmt.Errorf("last clip ends at %.6f, want %.6f", t.Clips[last].SourceEnd, t.TotalDuration)
	}
	pos := 0.0
	for i, c := range t.Clips {
		if c.Duration() <= 0 {
			return fmt.Errorf("clip %d has non-positive duration %.6f", i, c.Duration())
		}
		if i > 0 && math.Abs(c.SourceStart-t.Clips[i-1].SourceEnd) > timeTolerance {
			return fmt.Errorf("gap between clips %d and %d: %.6f != %.6f",
				i-1, i, t.Clips[i-1].SourceEnd, c.SourceStart)
		}
		if math.Abs(c.TimelineStart-pos) > timeTolerance {
			return fmt.Errorf("clip %d projection starts at %.6f, want %.6f", i, c.TimelineStart, pos)
		}
		want := pos
		if c.Include {
			want += c.Duration()
		}
		if math.Abs(c.TimelineEnd-want) > timeTolerance {
			return fmt.Errorf("clip %d projection ends at %.6f, want %.6f", i, c.TimelineEnd, want)
		}
		pos = want
	}
	return nil
}

// IncludedDuration returns the total duration of included clips, which is
// the expected output duration before softness padding.
func (t *Timeline) IncludedDuration() float64 {
	sum := 0.0
	for _, c := range t.Clips {
		if c.Include {
			sum += c.Duration()
		}
	}
	return sum
}

// ClipAt returns the index of the clip containing the given source time.
func (t *Timeline) ClipAt(sourceTime float64) (int, error) {
	for i, c := range t.Clips {
		if c.ContainsSource(sourceTime) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no clip contains source time %.3f", ErrIndexOutOfRange, sourceTime)
}
