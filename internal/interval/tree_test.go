package interval

import (
	"testing"
	"time"
)

const ms = time.Millisecond

func TestBuild_Empty(t *testing.T) {
	tree := Build(map[time.Duration]string{}, 10000*ms, Options{})
	if tree.Len() != 0 {
		t.Errorf("expected empty tree, got %d intervals", tree.Len())
	}
	if _, ok := tree.At(0); ok {
		t.Error("expected no data from empty tree")
	}
}

func TestBuild_FirstIntervalRetroactive(t *testing.T) {
	tree := Build(map[time.Duration]string{4000 * ms: "Neutral"}, 4000*ms, Options{})

	if tree.Len() != 1 {
		t.Fatalf("expected 1 interval, got %d", tree.Len())
	}
	v, ok := tree.At(0)
	if !ok || v != "Neutral" {
		t.Errorf("expected retroactive Neutral at 0, got %q ok=%v", v, ok)
	}
	if _, ok := tree.At(4000 * ms); ok {
		t.Error("expected no data at the right-open boundary")
	}
}

func TestBuild_BelowThreshold_SingleInterval(t *testing.T) {
	emissions := map[time.Duration]string{
		1000 * ms: "Happy",
		4000 * ms: "Sad", // 3000ms apart, below the 6000ms threshold
	}
	tree := Build(emissions, 4000*ms, Options{})

	// [0,1000) Happy, [1000,4000) Sad, no None interval introduced.
	if tree.Len() != 2 {
		t.Fatalf("expected 2 intervals, got %d", tree.Len())
	}
	v, ok := tree.At(2500 * ms)
	if !ok || v != "Sad" {
		t.Errorf("expected later emission Sad over the gap, got %q ok=%v", v, ok)
	}
	iv := tree.Intervals()[1]
	if iv.Start != 1000*ms || iv.End != 4000*ms {
		t.Errorf("expected [1000ms,4000ms), got [%v,%v)", iv.Start, iv.End)
	}
}

func TestBuild_AboveThreshold_DecaysToNone(t *testing.T) {
	emissions := map[time.Duration]string{
		2000 * ms:  "Happy",
		12000 * ms: "Sad", // 10000ms apart, above the 6000ms threshold
	}
	tree := Build(emissions, 12000*ms, Options{})

	// [0,2000) Happy, [2000,8000) Sad, [8000,12000) None.
	if tree.Len() != 3 {
		t.Fatalf("expected 3 intervals, got %d", tree.Len())
	}
	if v, ok := tree.At(5000 * ms); !ok || v != "Sad" {
		t.Errorf("expected Sad inside the data part of the gap, got %q ok=%v", v, ok)
	}
	if _, ok := tree.At(9000 * ms); ok {
		t.Error("expected no data inside the decayed part of the gap")
	}
	none := tree.Intervals()[2]
	if none.Start != 8000*ms || none.End != 12000*ms || none.Data != nil {
		t.Errorf("expected nil-data [8000ms,12000ms), got [%v,%v) data=%v", none.Start, none.End, none.Data)
	}
}

func TestBuild_CoversTimelineWithoutOverlap(t *testing.T) {
	emissions := map[time.Duration]int{
		3000 * ms:  1,
		5000 * ms:  2,
		15000 * ms: 3,
		18000 * ms: 4,
	}
	tree := Build(emissions, 18000*ms, Options{})

	last := time.Duration(0)
	for _, iv := range tree.Intervals() {
		if iv.Start != last {
			t.Errorf("gap or overlap: interval starts at %v, previous ended at %v", iv.Start, last)
		}
		if iv.End <= iv.Start {
			t.Errorf("degenerate interval [%v,%v)", iv.Start, iv.End)
		}
		last = iv.End
	}
	if last != 18000*ms {
		t.Errorf("expected coverage up to 18000ms, got %v", last)
	}
}

func TestBuild_TailDecayAfterLastEmission(t *testing.T) {
	emissions := map[time.Duration]string{4000 * ms: "Calm"}
	tree := Build(emissions, 12000*ms, Options{})

	// [0,4000) and [4000,8000) hold the emission, [8000,12000) is blank.
	if v, ok := tree.At(7999 * ms); !ok || v != "Calm" {
		t.Errorf("expected emission to stay valid for one frame past its timestamp, got %q ok=%v", v, ok)
	}
	if _, ok := tree.At(8000 * ms); ok {
		t.Error("expected decay to no data one frame after the last emission")
	}
	if tree.End() != 12000*ms {
		t.Errorf("expected coverage to session end, got %v", tree.End())
	}
}

func TestBuild_TailWithinThresholdHoldsToSessionEnd(t *testing.T) {
	emissions := map[time.Duration]string{
		4000 * ms:  "Neutral",
		8000 * ms:  "Neutral",
		12000 * ms: "Neutral",
	}
	tree := Build(emissions, 12000*ms, Options{})

	for _, q := range []time.Duration{0, 3000 * ms, 6000 * ms, 11999 * ms} {
		if v, ok := tree.At(q); !ok || v != "Neutral" {
			t.Errorf("at %v: expected continuous Neutral, got %q ok=%v", q, v, ok)
		}
	}
}

func TestBuild_QueryOutsideTimeline(t *testing.T) {
	emissions := map[time.Duration]string{2000 * ms: "Happy", 4000 * ms: "Happy"}
	tree := Build(emissions, 4000*ms, Options{})

	if _, ok := tree.At(4000 * ms); ok {
		t.Error("expected no data past the last interval")
	}
	if _, ok := tree.At(time.Hour); ok {
		t.Error("expected no data far past the timeline")
	}
}

func TestBuildHold_TextSemantics(t *testing.T) {
	entries := map[time.Duration]string{2000 * ms: "hello there"}
	tree := BuildHold(entries, 12000*ms)

	if tree.Len() != 1 {
		t.Fatalf("expected 1 interval, got %d", tree.Len())
	}
	iv := tree.Intervals()[0]
	if iv.Start != 2000*ms || iv.End != 12000*ms {
		t.Errorf("expected [2000ms,12000ms), got [%v,%v)", iv.Start, iv.End)
	}
	if v, ok := tree.At(11000 * ms); !ok || v != "hello there" {
		t.Errorf("expected utterance to hold to session end, got %q ok=%v", v, ok)
	}
	if _, ok := tree.At(1000 * ms); ok {
		t.Error("expected no data before the first utterance")
	}
}

func TestBuildHold_MultipleUtterances(t *testing.T) {
	entries := map[time.Duration]string{
		1000 * ms: "one",
		5000 * ms: "two",
	}
	tree := BuildHold(entries, 20000*ms)

	if v, _ := tree.At(4999 * ms); v != "one" {
		t.Errorf("expected first utterance before the second arrives, got %q", v)
	}
	if v, _ := tree.At(19999 * ms); v != "two" {
		t.Errorf("expected last utterance to hold with no decay, got %q", v)
	}
}

func TestOptions_CustomThresholds(t *testing.T) {
	emissions := map[time.Duration]string{
		0:         "a",
		5000 * ms: "b",
	}
	// With a 2s threshold and 1s frame the 5s gap decays.
	tree := Build(emissions, 5000*ms, Options{GapThreshold: 2 * time.Second, FrameSize: time.Second})

	if v, ok := tree.At(3999 * ms); !ok || v != "b" {
		t.Errorf("expected data up to one frame before the later emission, got %q ok=%v", v, ok)
	}
	if _, ok := tree.At(4500 * ms); ok {
		t.Error("expected decay inside the custom frame")
	}
}
