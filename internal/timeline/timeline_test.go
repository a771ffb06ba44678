package timeline

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// newSegmented builds the canonical four-clip fixture:
// silence [0,2), content [2,5), silence [5,8), content [8,10).
func newSegmented(t *testing.T) *Timeline {
	t.Helper()
	tl, err := New(10, "test.mp4")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tl.SplitBySilence([]Range{{Start: 0, End: 2}, {Start: 5, End: 8}})
	if len(tl.Clips) != 4 {
		t.Fatalf("expected 4 clips, got %d", len(tl.Clips))
	}
	return tl
}

func TestNew(t *testing.T) {
	tl, err := New(10, "test.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tl.Clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(tl.Clips))
	}
	if tl.Clips[0].SourceStart != 0 || tl.Clips[0].SourceEnd != 10 {
		t.Errorf("initial clip spans (%v, %v), want (0, 10)", tl.Clips[0].SourceStart, tl.Clips[0].SourceEnd)
	}
	if err := tl.Validate(); err != nil {
		t.Errorf("fresh timeline invalid: %v", err)
	}

	if _, err := New(0, "test.mp4"); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("New(0) error = %v, want ErrInvalidDuration", err)
	}
}

func TestSplitBySilence(t *testing.T) {
	tests := []struct {
		name        string
		ranges      []Range
		wantCount   int
		wantSilence []bool
	}{
		{"middle silence", []Range{{3, 5}}, 3, []bool{false, true, false}},
		{"leading and interior", []Range{{0, 2}, {5, 8}}, 4, []bool{true, false, true, false}},
		{"all silent", []Range{{0, 10}}, 1, []bool{true}},
		{"no silence", nil, 1, []bool{false}},
		{"unsorted input", []Range{{5, 8}, {0, 2}}, 4, []bool{true, false, true, false}},
		{"range past end clamped", []Range{{8, 15}}, 2, []bool{false, true}},
		{"empty range dropped", []Range{{4, 4}}, 1, []bool{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, _ := New(10, "test.mp4")
			tl.SplitBySilence(tt.ranges)

			if len(tl.Clips) != tt.wantCount {
				t.Fatalf("clip count = %d, want %d", len(tl.Clips), tt.wantCount)
			}
			for i, want := range tt.wantSilence {
				if tl.Clips[i].IsSilence != want {
					t.Errorf("clip %d IsSilence = %v, want %v", i, tl.Clips[i].IsSilence, want)
				}
			}
			if err := tl.Validate(); err != nil {
				t.Errorf("invariants violated: %v", err)
			}
		})
	}
}

func TestPartitionInvariant_OperationSequence(t *testing.T) {
	tl := newSegmented(t)

	ops := []func() error{
		func() error { return tl.ToggleInclude(0) },
		func() error { _, err := tl.AdjustBoundary(1, 4.2); return err },
		func() error { return tl.MergeWithNext(2) },
		func() error { return tl.Remove(1) },
		func() error { return tl.ToggleInclude(0) },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}
		if err := tl.Validate(); err != nil {
			t.Fatalf("invariants violated after op %d: %v", i, err)
		}
		sum := 0.0
		for _, c := range tl.Clips {
			sum += c.Duration()
		}
		if math.Abs(sum-tl.TotalDuration) > 1e-9 {
			t.Fatalf("duration sum %v != total %v after op %d", sum, tl.TotalDuration, i)
		}
	}
}

func TestToggleInclude(t *testing.T) {
	tl := newSegmented(t)
	before := tl.Clone()

	if err := tl.ToggleInclude(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tl.Clips[0].Include {
		t.Error("expected clip 0 included after toggle")
	}
	// Projection of subsequent clips shifts by the silence duration.
	if tl.Clips[1].TimelineStart != 2 {
		t.Errorf("clip 1 projection starts at %v, want 2", tl.Clips[1].TimelineStart)
	}

	// Toggling twice restores the original timeline exactly.
	if err := tl.ToggleInclude(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(tl.Clips, before.Clips) {
		t.Errorf("double toggle did not restore timeline:\n got %+v\nwant %+v", tl.Clips, before.Clips)
	}

	if err := tl.ToggleInclude(99); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("ToggleInclude(99) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestProjection_ExcludedClipsZeroWidth(t *testing.T) {
	tl := newSegmented(t)

	// silence [0,2) excluded, content [2,5) included, silence [5,8)
	// excluded, content [8,10) included.
	wantStarts := []float64{0, 0, 3, 3}
	wantEnds := []float64{0, 3, 3, 5}
	for i, c := range tl.Clips {
		if math.Abs(c.TimelineStart-wantStarts[i]) > 1e-9 || math.Abs(c.TimelineEnd-wantEnds[i]) > 1e-9 {
			t.Errorf("clip %d projection (%v, %v), want (%v, %v)",
				i, c.TimelineStart, c.TimelineEnd, wantStarts[i], wantEnds[i])
		}
	}
	if got := tl.IncludedDuration(); math.Abs(got-5) > 1e-9 {
		t.Errorf("IncludedDuration() = %v, want 5", got)
	}
}

func TestRemove(t *testing.T) {
	t.Run("absorbs into previous clip", func(t *testing.T) {
		tl := newSegmented(t)
		if err := tl.Remove(2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tl.Clips) != 3 {
			t.Fatalf("clip count = %d, want 3", len(tl.Clips))
		}
		// Content [2,5) absorbed the removed silence span and keeps its
		// classification.
		if tl.Clips[1].SourceEnd != 8 {
			t.Errorf("previous clip ends at %v, want 8", tl.Clips[1].SourceEnd)
		}
		if tl.Clips[1].IsSilence {
			t.Error("absorbing clip should keep its content classification")
		}
		if err := tl.Validate(); err != nil {
			t.Errorf("invariants violated: %v", err)
		}
	})

	t.Run("first clip absorbs into next", func(t *testing.T) {
		tl := newSegmented(t)
		if err := tl.Remove(0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tl.Clips[0].SourceStart != 0 {
			t.Errorf("first clip starts at %v, want 0", tl.Clips[0].SourceStart)
		}
		if err := tl.Validate(); err != nil {
			t.Errorf("invariants violated: %v", err)
		}
	})

	t.Run("total duration preserved", func(t *testing.T) {
		tl := newSegmented(t)
		_ = tl.Remove(1)
		sum := 0.0
		for _, c := range tl.Clips {
			sum += c.Duration()
		}
		if math.Abs(sum-10) > 1e-9 {
			t.Errorf("duration sum = %v, want 10", sum)
		}
	})

	t.Run("cannot empty the clip list", func(t *testing.T) {
		tl, _ := New(10, "test.mp4")
		if err := tl.Remove(0); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Remove on single clip error = %v, want ErrIndexOutOfRange", err)
		}
		if len(tl.Clips) != 1 {
			t.Error("failed remove must not mutate the timeline")
		}
	})
}

func TestMergeWithNext(t *testing.T) {
	tl := newSegmented(t)

	// Merge content [2,5) with following silence [5,8): earlier wins.
	if err := tl.MergeWithNext(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tl.Clips) != 3 {
		t.Fatalf("clip count = %d, want 3", len(tl.Clips))
	}
	merged := tl.Clips[1]
	if merged.SourceStart != 2 || merged.SourceEnd != 8 {
		t.Errorf("merged span (%v, %v), want (2, 8)", merged.SourceStart, merged.SourceEnd)
	}
	if merged.IsSilence || !merged.Include {
		t.Error("merged clip should keep the earlier clip's classification and include flag")
	}
	if err := tl.Validate(); err != nil {
		t.Errorf("invariants violated: %v", err)
	}

	if err := tl.MergeWithNext(len(tl.Clips) - 1); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("merge on last clip error = %v, want ErrInvalidOperation", err)
	}
	if err := tl.MergeWithNext(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("merge at -1 error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestAdjustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		newTime float64
		want    float64
	}{
		{"inside range", 4.0, 4.0},
		{"below lower bound", -100, 2 + boundaryEpsilon},
		{"at lower clip start", 2, 2 + boundaryEpsilon},
		{"above upper bound", 100, 8 - boundaryEpsilon},
		{"at upper clip end", 8, 8 - boundaryEpsilon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newSegmented(t)
			// Boundary between content [2,5) and silence [5,8).
			got, err := tl.AdjustBoundary(1, tt.newTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("clamped time = %v, want %v", got, tt.want)
			}
			if tl.Clips[1].SourceEnd != got || tl.Clips[2].SourceStart != got {
				t.Error("boundary not applied to both clips")
			}
			if tl.Clips[1].Duration() <= 0 || tl.Clips[2].Duration() <= 0 {
				t.Error("boundary adjustment produced a non-positive clip")
			}
			if err := tl.Validate(); err != nil {
				t.Errorf("invariants violated: %v", err)
			}
		})
	}

	t.Run("no boundary after last clip", func(t *testing.T) {
		tl := newSegmented(t)
		if _, err := tl.AdjustBoundary(3, 9); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("error = %v, want ErrIndexOutOfRange", err)
		}
	})
}

func TestExcludeSilence(t *testing.T) {
	tl := newSegmented(t)
	// Re-include a silence clip first to prove it gets excluded again.
	if err := tl.ToggleInclude(0); err != nil {
		t.Fatal(err)
	}

	tl.ExcludeSilence()

	for i, c := range tl.Clips {
		if c.IsSilence && c.Include {
			t.Errorf("silence clip %d still included", i)
		}
		if !c.IsSilence && !c.Include {
			t.Errorf("content clip %d lost its include flag", i)
		}
	}
	if err := tl.Validate(); err != nil {
		t.Errorf("invariants violated: %v", err)
	}
}

func TestClipAt(t *testing.T) {
	tl := newSegmented(t)

	if idx, err := tl.ClipAt(3.5); err != nil || idx != 1 {
		t.Errorf("ClipAt(3.5) = %d, %v, want 1, nil", idx, err)
	}
	if idx, err := tl.ClipAt(0); err != nil || idx != 0 {
		t.Errorf("ClipAt(0) = %d, %v, want 0, nil", idx, err)
	}
	if _, err := tl.ClipAt(10); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("ClipAt(10) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestClone_Independent(t *testing.T) {
	tl := newSegmented(t)
	clone := tl.Clone()

	if err := clone.ToggleInclude(0); err != nil {
		t.Fatal(err)
	}
	if tl.Clips[0].Include {
		t.Error("mutating a clone must not affect the original")
	}
	if !reflect.DeepEqual(tl.RawSilenceRanges, clone.RawSilenceRanges) {
		t.Error("clone should carry the raw silence ranges")
	}
}

func TestFailedOperation_LeavesTimelineUnchanged(t *testing.T) {
	tl := newSegmented(t)
	before := tl.Clone()

	_ = tl.ToggleInclude(42)
	_ = tl.Remove(-1)
	_ = tl.MergeWithNext(3)
	_, _ = tl.AdjustBoundary(9, 5)

	if !reflect.DeepEqual(before.Clips, tl.Clips) {
		t.Error("rejected operations must not leave partial mutations")
	}
}
