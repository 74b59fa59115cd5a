// Package classify defines the boundary to the emotion and trait
// classifiers. Models are injected dependencies; the engine only
// consumes probability vectors over the closed label sets.
package classify

import (
	"errors"
	"fmt"

	"interview-emotion-engine/internal/models"
)

// ErrNoPrediction is returned when the model produced no usable output
// for a sample. The caller skips the sample and keeps going.
var ErrNoPrediction = errors.New("classifier produced no prediction")

// Classifier maps a fixed-size feature tensor to a probability
// distribution over the affect label set, indexed by
// models.EmotionOrder. Implementations must return an error rather
// than panic on bad input.
type Classifier interface {
	Classify(tensor []float32) ([]float64, error)
}

// TraitClassifier scores the five OCEAN dimensions over a full
// transcript. Invoked once, at session end.
type TraitClassifier interface {
	ClassifyTraits(text string) (models.TraitScores, error)
}

// Top returns the highest-probability label of an affect distribution.
func Top(probs []float64) (models.Emotion, float64, error) {
	if len(probs) != models.NumEmotions {
		return "", 0, fmt.Errorf("probability vector has %d entries, want %d", len(probs), models.NumEmotions)
	}
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	label, err := models.EmotionAt(best)
	return label, probs[best], err
}
