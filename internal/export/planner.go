// Package export turns a timeline into an ordered cut-list and drives the
// external encoder through it, streaming progress back to the caller.
package export

import (
	"errors"
	"math"

	"github.com/gaurab-pandey/video-silence-remover/internal/analysis"
	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// ErrEmptyExport is returned when no clip in the timeline is included.
var ErrEmptyExport = errors.New("no clips are included in the export")

// Softness padding bounds, in seconds. Retained silence is split
// directionally: a smaller slice trails the preceding speech and a larger
// slice leads into the following speech.
const (
	minLeadPad  = 0.03
	maxLeadPad  = 0.2
	minTrailPad = 0.05
	maxTrailPad = 0.3
	leadShare   = 0.4
	trailShare  = 0.6
)

// Plan is the ordered cut-list the encoder consumes: ascending,
// non-overlapping source ranges with softness padding already applied.
type Plan struct {
	// Ranges are the source spans to retain, in ascending order.
	Ranges []timeline.Range
	// OutputDuration is the total duration of the planned output in seconds.
	OutputDuration float64
}

// BuildPlan collects the included clips of a timeline into a cut-list.
// Adjacent included clips collapse into one range. When softness is
// non-zero, each excluded gap bordering a retained range is shrunk so a
// slice of the silence survives the cut; a gap fully consumed by padding
// is bridged and its neighbors merge.
func BuildPlan(t *timeline.Timeline, cfg analysis.SilenceConfig) (*Plan, error) {
	var ranges []timeline.Range
	for _, c := range t.Clips {
		if !c.Include {
			continue
		}
		if n := len(ranges); n > 0 && math.Abs(ranges[n-1].End-c.SourceStart) < 1e-9 {
			ranges[n-1].End = c.SourceEnd
		} else {
			ranges = append(ranges, timeline.Range{Start: c.SourceStart, End: c.SourceEnd})
		}
	}
	if len(ranges) == 0 {
		return nil, ErrEmptyExport
	}

	ranges = applySoftness(ranges, t.TotalDuration, cfg.SoftnessPercent)

	total := 0.0
	for _, r := range ranges {
		total += r.Duration()
	}
	return &Plan{Ranges: ranges, OutputDuration: total}, nil
}

// applySoftness pads retained ranges into their neighboring excluded gaps.
// For each gap, preserved = gap * percent/100, split 40% after the
// preceding range and 60% before the following one, each clamped to its
// bounds. A leading gap only pads the first range's start; a trailing gap
// only the last range's end.
func applySoftness(ranges []timeline.Range, totalDuration float64, percent int) []timeline.Range {
	ratio := float64(analysis.ClampSoftness(percent)) / 100
	if ratio <= 0 {
		return ranges
	}

	// Interior gaps: shrink from both sides, bridging when nothing is left.
	out := []timeline.Range{ranges[0]}
	for _, next := range ranges[1:] {
		prev := &out[len(out)-1]
		gap := next.Start - prev.End
		preserved := gap * ratio
		lead := clamp(preserved*leadShare, minLeadPad, maxLeadPad)
		trail := clamp(preserved*trailShare, minTrailPad, maxTrailPad)

		if lead+trail >= gap {
			// Padding consumes the whole gap: keep it all.
			prev.End = next.End
			continue
		}
		prev.End += lead
		next.Start -= trail
		out = append(out, next)
	}

	// Gap before the first retained range.
	if first := &out[0]; first.Start > 0 {
		trail := clamp(first.Start*ratio*trailShare, minTrailPad, maxTrailPad)
		first.Start = math.Max(0, first.Start-trail)
	}
	// Gap after the last retained range.
	if last := &out[len(out)-1]; last.End < totalDuration {
		lead := clamp((totalDuration-last.End)*ratio*leadShare, minLeadPad, maxLeadPad)
		last.End = math.Min(totalDuration, last.End+lead)
	}

	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
