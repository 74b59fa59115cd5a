// Package schema validates outbound events before they leave the
// process, so malformed payloads never reach a topic.
package schema

import (
	"fmt"

	"interview-emotion-engine/internal/models"
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks structural invariants of a known event type. Unknown
// event types are rejected rather than passed through.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case models.EmissionEvent:
		return validateEmission(&e)
	case *models.EmissionEvent:
		return validateEmission(e)
	case models.UtteranceEvent:
		return validateUtterance(&e)
	case *models.UtteranceEvent:
		return validateUtterance(e)
	default:
		return fmt.Errorf("unknown event type %T", event)
	}
}

func validateEmission(e *models.EmissionEvent) error {
	if e.SessionID == "" {
		return fmt.Errorf("emission event missing session id")
	}
	if e.Modality != models.ModalityVideo && e.Modality != models.ModalityAudio {
		return fmt.Errorf("emission event has invalid modality %q", e.Modality)
	}
	if e.TimestampMs < 0 {
		return fmt.Errorf("emission event has negative timestamp %d", e.TimestampMs)
	}
	if models.Emotion(e.Label).Index() < 0 {
		return fmt.Errorf("emission event has unknown label %q", e.Label)
	}
	return nil
}

func validateUtterance(e *models.UtteranceEvent) error {
	if e.SessionID == "" {
		return fmt.Errorf("utterance event missing session id")
	}
	if e.TimestampMs < 0 {
		return fmt.Errorf("utterance event has negative timestamp %d", e.TimestampMs)
	}
	if e.Text == "" {
		return fmt.Errorf("utterance event has empty text")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("utterance event confidence %f out of range", e.Confidence)
	}
	return nil
}
