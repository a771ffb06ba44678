package timeline

import (
	"fmt"
	"math"
)

// commit validates a candidate timeline and swaps it in. The receiver is
// untouched when validation fails, so callers never observe a partial
// mutation.
func (t *Timeline) commit(next *Timeline) error {
	next.recalculate()
	if err := next.Validate(); err != nil {
		return err
	}
	*t = *next
	return nil
}

// ToggleInclude flips the include flag on the clip at index and recomputes
// the projection for all subsequent clips.
func (t *Timeline) ToggleInclude(index int) error {
	if index < 0 || index >= len(t.Clips) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	next := t.Clone()
	next.Clips[index].Include = !next.Clips[index].Include
	return t.commit(next)
}

// Remove deletes the clip at index. The freed span is absorbed into the
// previous clip when one exists, otherwise into the next, so the partition
// stays gap-free. Removing the only clip is rejected.
func (t *Timeline) Remove(index int) error {
	if index < 0 || index >= len(t.Clips) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if len(t.Clips) == 1 {
		return fmt.Errorf("%w: cannot remove the only clip", ErrIndexOutOfRange)
	}
	next := t.Clone()
	removed := next.Clips[index]
	next.Clips = append(next.Clips[:index], next.Clips[index+1:]...)
	if index > 0 {
		next.Clips[index-1].SourceEnd = removed.SourceEnd
	} else {
		next.Clips[0].SourceStart = removed.SourceStart
	}
	return t.commit(next)
}

// MergeWithNext combines the clip at index with its successor into a single
// clip spanning both. The earlier clip's classification and include flag
// win. Merging the last clip is rejected.
func (t *Timeline) MergeWithNext(index int) error {
	if index < 0 || index >= len(t.Clips) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if index == len(t.Clips)-1 {
		return fmt.Errorf("%w: no next segment to merge", ErrInvalidOperation)
	}
	next := t.Clone()
	next.Clips[index].SourceEnd = next.Clips[index+1].SourceEnd
	next.Clips = append(next.Clips[:index+1], next.Clips[index+2:]...)
	return t.commit(next)
}

// AdjustBoundary moves the shared boundary between the clips at index and
// index+1 to newTime, clamped so both clips keep a positive duration. The
// clamped time is authoritative: interactive drag feedback must use the
// returned value, not the raw cursor position.
func (t *Timeline) AdjustBoundary(index int, newTime float64) (float64, error) {
	if index < 0 || index+1 >= len(t.Clips) {
		return 0, fmt.Errorf("%w: no boundary after segment %d", ErrIndexOutOfRange, index)
	}
	lo := t.Clips[index].SourceStart + boundaryEpsilon
	hi := t.Clips[index+1].SourceEnd - boundaryEpsilon
	if hi < lo {
		// Both clips are already at minimum width; the boundary cannot move.
		return t.Clips[index].SourceEnd, nil
	}
	clamped := math.Min(math.Max(newTime, lo), hi)

	next := t.Clone()
	next.Clips[index].SourceEnd = clamped
	next.Clips[index+1].SourceStart = clamped
	if err := t.commit(next); err != nil {
		return 0, err
	}
	return clamped, nil
}

// ExcludeSilence marks every silence clip as excluded in one pass, leaving
// the partition itself intact.
func (t *Timeline) ExcludeSilence() {
	next := t.Clone()
	for i := range next.Clips {
		if next.Clips[i].IsSilence {
			next.Clips[i].Include = false
		}
	}
	next.recalculate()
	*t = *next
}
