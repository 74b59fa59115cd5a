// Package mock provides scripted classifiers for tests and the session
// simulator, so the engine can run without real model weights.
package mock

import (
	"sync"

	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/service/classify"
)

// Result is one scripted classifier response. A nil Probs entry with
// Err set simulates a model failure on that sample.
type Result struct {
	Probs []float64
	Err   error
}

// Classifier replays a script of results, one per Classify call,
// cycling when the script is exhausted.
type Classifier struct {
	mu     sync.Mutex
	script []Result
	i      int
}

// New creates a scripted classifier.
func New(script ...Result) *Classifier {
	return &Classifier{script: script}
}

// Labeled builds a script entry whose distribution puts the given
// confidence on one label and spreads the remainder evenly.
func Labeled(label models.Emotion, confidence float64) Result {
	probs := make([]float64, models.NumEmotions)
	rest := (1 - confidence) / float64(models.NumEmotions-1)
	for i := range probs {
		probs[i] = rest
	}
	probs[label.Index()] = confidence
	return Result{Probs: probs}
}

// Failing builds a script entry that simulates a model failure.
func Failing() Result {
	return Result{Err: classify.ErrNoPrediction}
}

// Classify replays the next scripted result.
func (c *Classifier) Classify(_ []float32) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.script) == 0 {
		return nil, classify.ErrNoPrediction
	}
	r := c.script[c.i%len(c.script)]
	c.i++
	return r.Probs, r.Err
}

// Traits is a fixed-output trait classifier.
type Traits struct {
	Scores models.TraitScores
	Err    error
}

// ClassifyTraits returns the configured scores.
func (t Traits) ClassifyTraits(string) (models.TraitScores, error) {
	return t.Scores, t.Err
}
