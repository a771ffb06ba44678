// Package timeline provides the Timeline aggregate: an ordered, gap-free
// partition of a video's duration into clips, plus the segment editor
// operations that mutate it. All mutations are transactional: either the
// full invariant set holds afterwards or the timeline is left unchanged.
package timeline

// Clip is a contiguous span of the timeline.
//
// Source times address the original media file. Timeline times are the
// derived position in the edited output: a cumulative projection over
// included clips only, recomputed after every mutation. Excluded clips
// have a zero-width projection.
type Clip struct {
	// SourceStart is the start time in the source video, in seconds.
	SourceStart float64 `json:"source_start"`
	// SourceEnd is the end time in the source video, in seconds.
	SourceEnd float64 `json:"source_end"`
	// TimelineStart is the start position in the edited output, in seconds.
	TimelineStart float64 `json:"timeline_start"`
	// TimelineEnd is the end position in the edited output, in seconds.
	TimelineEnd float64 `json:"timeline_end"`
	// IsSilence records the analyzer's classification for this span.
	IsSilence bool `json:"is_silence"`
	// Include controls whether the span appears in the exported output.
	Include bool `json:"include"`
}

// NewClip creates a clip spanning [sourceStart, sourceEnd). Content clips
// are included by default, silence clips excluded.
func NewClip(sourceStart, sourceEnd float64, isSilence bool) Clip {
	return Clip{
		SourceStart:   sourceStart,
		SourceEnd:     sourceEnd,
		TimelineStart: sourceStart,
		TimelineEnd:   sourceEnd,
		IsSilence:     isSilence,
		Include:       !isSilence,
	}
}

// Duration returns the source duration of the clip in seconds.
func (c Clip) Duration() float64 {
	return c.SourceEnd - c.SourceStart
}

// ContainsSource reports whether a source time falls within this clip.
func (c Clip) ContainsSource(t float64) bool {
	return t >= c.SourceStart && t < c.SourceEnd
}

// ContainsTimeline reports whether an output-timeline time falls within
// this clip's projection. Always false for excluded clips.
func (c Clip) ContainsTimeline(t float64) bool {
	return t >= c.TimelineStart && t < c.TimelineEnd
}

// TimelineToSource converts an output-timeline time to a source time.
// The time is assumed to be within this clip's projection.
func (c Clip) TimelineToSource(t float64) float64 {
	return c.SourceStart + (t - c.TimelineStart)
}
