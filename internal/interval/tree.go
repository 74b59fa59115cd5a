// Package interval converts a sparse mapping of elapsed-session
// timestamps to emissions into a gap-aware sequence of disjoint
// intervals, so arbitrary playback positions resolve to "the active
// emission at that time" or "no data".
package interval

import (
	"sort"
	"time"
)

const (
	// DefaultGapThreshold is the largest distance between consecutive
	// emissions that still counts as one continuous stretch.
	DefaultGapThreshold = 6 * time.Second

	// DefaultFrameSize is the length of one aggregation window; an
	// emission preceding a large gap stays valid for this long before
	// decaying into no-data.
	DefaultFrameSize = 4 * time.Second
)

// Interval maps [Start, End) to a payload. A nil Data marks a stretch
// with no usable emission.
type Interval[T any] struct {
	Start time.Duration
	End   time.Duration
	Data  *T
}

// Tree holds disjoint intervals sorted by start time. Point lookups are
// O(log n).
type Tree[T any] struct {
	intervals []Interval[T]
}

// Options tune gap reconstruction. Zero values fall back to the
// defaults.
type Options struct {
	GapThreshold time.Duration
	FrameSize    time.Duration
}

func (o Options) withDefaults() Options {
	if o.GapThreshold <= 0 {
		o.GapThreshold = DefaultGapThreshold
	}
	if o.FrameSize <= 0 {
		o.FrameSize = DefaultFrameSize
	}
	return o
}

func sortedKeys[T any](emissions map[time.Duration]T) []time.Duration {
	keys := make([]time.Duration, 0, len(emissions))
	for k := range emissions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Build reconstructs the gap-aware timeline for video/audio emissions.
//
// The first emission applies retroactively to session start. Between
// consecutive emissions closer than the gap threshold, one interval
// carries the later emission over the whole stretch. Across a larger
// gap the later emission covers the stretch up to one frame before its
// own timestamp, and the final frame-sized remainder holds no data.
// After the last emission the same decay applies against sessionEnd:
// the emission stays valid for one frame, then the timeline goes blank.
// A sessionEnd at or before the last emission adds no tail, so a map
// with a single emission and no later session time yields only the
// retroactive head interval.
func Build[T any](emissions map[time.Duration]T, sessionEnd time.Duration, opts Options) Tree[T] {
	o := opts.withDefaults()
	keys := sortedKeys(emissions)
	if len(keys) == 0 {
		return Tree[T]{}
	}

	var out []Interval[T]
	add := func(start, end time.Duration, data *T) {
		if end > start {
			out = append(out, Interval[T]{Start: start, End: end, Data: data})
		}
	}
	dataAt := func(k time.Duration) *T {
		v := emissions[k]
		return &v
	}

	add(0, keys[0], dataAt(keys[0]))
	for i := 0; i < len(keys)-1; i++ {
		first, last := keys[i], keys[i+1]
		if last-first > o.GapThreshold {
			add(first, last-o.FrameSize, dataAt(last))
			add(last-o.FrameSize, last, nil)
		} else {
			add(first, last, dataAt(last))
		}
	}

	tail := keys[len(keys)-1]
	switch {
	case sessionEnd-tail > o.GapThreshold:
		add(tail, tail+o.FrameSize, dataAt(tail))
		add(tail+o.FrameSize, sessionEnd, nil)
	case sessionEnd > tail:
		add(tail, sessionEnd, dataAt(tail))
	}

	return Tree[T]{intervals: out}
}

// BuildHold reconstructs a timeline under plain last-value-holds
// semantics with no gap decay: each entry covers from its own timestamp
// until the next entry, and the final entry holds until sessionEnd.
// Nothing covers the time before the first entry. Used for utterance
// text.
func BuildHold[T any](entries map[time.Duration]T, sessionEnd time.Duration) Tree[T] {
	keys := sortedKeys(entries)
	if len(keys) == 0 {
		return Tree[T]{}
	}

	var out []Interval[T]
	for i := 0; i < len(keys)-1; i++ {
		v := entries[keys[i]]
		out = append(out, Interval[T]{Start: keys[i], End: keys[i+1], Data: &v})
	}
	tail := keys[len(keys)-1]
	if sessionEnd > tail {
		v := entries[tail]
		out = append(out, Interval[T]{Start: tail, End: sessionEnd, Data: &v})
	}
	return Tree[T]{intervals: out}
}

// At resolves a playback position. It returns the payload of the
// covering interval, or the zero value and false when the position
// falls in a no-data interval or outside the timeline.
func (t Tree[T]) At(q time.Duration) (T, bool) {
	var zero T
	i := sort.Search(len(t.intervals), func(i int) bool { return t.intervals[i].End > q })
	if i == len(t.intervals) || t.intervals[i].Start > q || t.intervals[i].Data == nil {
		return zero, false
	}
	return *t.intervals[i].Data, true
}

// Len reports the number of intervals.
func (t Tree[T]) Len() int { return len(t.intervals) }

// Intervals exposes the underlying sorted intervals.
func (t Tree[T]) Intervals() []Interval[T] { return t.intervals }

// End reports the end of the covered timeline, or zero for an empty
// tree.
func (t Tree[T]) End() time.Duration {
	if len(t.intervals) == 0 {
		return 0
	}
	return t.intervals[len(t.intervals)-1].End
}
