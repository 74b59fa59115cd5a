// Package aggregate turns raw capture samples into per-window emissions.
// One WindowAggregator instance exists per modality (video, audio) and
// is owned exclusively by that modality's capture worker; utterance text
// bypasses windowing via the TextSink.
package aggregate

import (
	"time"

	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
	"interview-emotion-engine/internal/service/classify"
)

// DefaultWindow is the accumulation period before a classification
// decision is finalized.
const DefaultWindow = 4 * time.Second

// failureStreakWarn is how many consecutive classifier failures inside
// one window trigger a warning.
const failureStreakWarn = 3

type candidate struct {
	sample models.RawSample
	label  models.Emotion
	probs  []float64
}

// WindowAggregator buffers per-sample classifications for a window and
// reduces them to a single emission when the window closes. Windows are
// not aligned to wall-clock boundaries: a new window starts when the
// previous one closes, so window length drifts with processing time.
//
// Not safe for concurrent use; each capture worker owns its aggregator.
type WindowAggregator struct {
	modality   string
	classifier classify.Classifier
	window     time.Duration
	log        zerolog.Logger
	metrics    *metrics.Metrics

	windowStart   time.Duration
	tally         map[models.Emotion]int
	candidates    []candidate
	failureStreak int
}

// NewWindowAggregator creates an aggregator for one modality. A window
// of zero falls back to DefaultWindow.
func NewWindowAggregator(modality string, c classify.Classifier, window time.Duration, log zerolog.Logger, m *metrics.Metrics) *WindowAggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &WindowAggregator{
		modality:   modality,
		classifier: c,
		window:     window,
		log:        log.With().Str("modality", modality).Logger(),
		metrics:    m,
		tally:      make(map[models.Emotion]int),
	}
}

// Reset restarts the window timer at the given elapsed time and drops
// any accumulated tally. Called once before the first sample and after
// a resume onto an empty window.
func (a *WindowAggregator) Reset(at time.Duration) {
	a.windowStart = at
	a.tally = make(map[models.Emotion]int)
	a.candidates = a.candidates[:0]
	a.failureStreak = 0
}

// Pending reports how many classified samples sit in the current
// window.
func (a *WindowAggregator) Pending() int {
	return len(a.candidates)
}

// Accept classifies one raw sample and records it into the running
// window tally. A classifier failure skips the sample and keeps the
// loop alive; it never counts toward any label.
func (a *WindowAggregator) Accept(sample models.RawSample, tensor []float32, at time.Duration) {
	start := time.Now()
	probs, err := a.classifier.Classify(tensor)
	a.metrics.RecordClassifierLatency(a.modality, time.Since(start).Seconds())
	if err != nil {
		a.recordFailure(err)
		return
	}
	label, _, err := classify.Top(probs)
	if err != nil {
		a.recordFailure(err)
		return
	}

	a.failureStreak = 0
	a.tally[label]++
	a.candidates = append(a.candidates, candidate{sample: sample, label: label, probs: probs})
	a.metrics.RecordSample(a.modality)
}

func (a *WindowAggregator) recordFailure(err error) {
	a.metrics.RecordClassifierFailure(a.modality)
	a.failureStreak++
	if a.failureStreak == failureStreakWarn {
		a.log.Warn().
			Err(err).
			Int("consecutiveFailures", a.failureStreak).
			Msg("Classifier failing repeatedly within one window")
		return
	}
	a.log.Debug().Err(err).Msg("Classifier failure, sample skipped")
}

// MaybeClose finalizes the window once more than the window length has
// elapsed since it started. The winning label is the most frequent
// per-sample label (ties broken by canonical label order), and the
// representative sample is the one among the winners with the highest
// confidence for the winning label. An empty window produces no
// emission; the timer restarts either way.
func (a *WindowAggregator) MaybeClose(now time.Duration) (models.Emission, bool) {
	if now-a.windowStart <= a.window {
		return models.Emission{}, false
	}
	return a.close(now)
}

// Flush closes the current window immediately regardless of elapsed
// time. Called at session stop so trailing samples are not lost.
func (a *WindowAggregator) Flush(now time.Duration) (models.Emission, bool) {
	return a.close(now)
}

func (a *WindowAggregator) close(now time.Duration) (models.Emission, bool) {
	if len(a.candidates) == 0 {
		a.metrics.RecordWindowEmpty(a.modality)
		a.Reset(now)
		return models.Emission{}, false
	}

	winning := a.winningLabel()
	rep := a.representative(winning)

	emission := models.Emission{
		Timestamp: now,
		Sample:    rep,
		Label:     winning,
	}

	a.log.Debug().
		Str("label", string(winning)).
		Int("samples", len(a.candidates)).
		Dur("windowLength", now-a.windowStart).
		Msg("Window closed")
	a.metrics.RecordWindowClosed(a.modality)

	a.Reset(now)
	return emission, true
}

func (a *WindowAggregator) winningLabel() models.Emotion {
	best := -1
	var winning models.Emotion
	for _, l := range models.EmotionOrder {
		if a.tally[l] > best {
			best = a.tally[l]
			winning = l
		}
	}
	return winning
}

// representative picks, among samples classified as the winning label,
// the one with the highest confidence for that label. Not the globally
// highest-confidence sample. The first of equals wins.
func (a *WindowAggregator) representative(winning models.Emotion) models.RawSample {
	idx := winning.Index()
	best := -1.0
	var rep models.RawSample
	for _, c := range a.candidates {
		if c.label != winning {
			continue
		}
		if c.probs[idx] > best {
			best = c.probs[idx]
			rep = c.sample
		}
	}
	return rep
}
