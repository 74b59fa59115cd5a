// Package models defines the data structures shared across the engine:
// emotion labels, raw samples, emissions, report records and events.
package models

import "fmt"

// Emotion is one label of the closed affect set used by the video and
// audio classifiers.
type Emotion string

const (
	EmotionAngry    Emotion = "Angry"
	EmotionDisgust  Emotion = "Disgust"
	EmotionFear     Emotion = "Fear"
	EmotionHappy    Emotion = "Happy"
	EmotionSad      Emotion = "Sad"
	EmotionSurprise Emotion = "Surprise"
	EmotionNeutral  Emotion = "Neutral"
)

// EmotionOrder is the canonical label order. Classifier probability
// vectors are indexed by it, and ties between equally frequent labels
// are broken by it so window aggregation stays deterministic.
var EmotionOrder = []Emotion{
	EmotionAngry,
	EmotionDisgust,
	EmotionFear,
	EmotionHappy,
	EmotionSad,
	EmotionSurprise,
	EmotionNeutral,
}

// NumEmotions is the size of the affect label set.
const NumEmotions = 7

// Index returns the position of the label in EmotionOrder, or -1 for an
// unknown label.
func (e Emotion) Index() int {
	for i, l := range EmotionOrder {
		if l == e {
			return i
		}
	}
	return -1
}

// EmotionAt maps a classifier output index back to its label.
func EmotionAt(i int) (Emotion, error) {
	if i < 0 || i >= len(EmotionOrder) {
		return "", fmt.Errorf("emotion index out of range: %d", i)
	}
	return EmotionOrder[i], nil
}

// TraitScores holds the five OCEAN personality dimensions produced by
// the text classifier once per session. Dimensions are independent, not
// mutually exclusive.
type TraitScores struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}
