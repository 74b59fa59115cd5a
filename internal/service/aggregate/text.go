package aggregate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/events"
	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
	"interview-emotion-engine/internal/session"
)

// TextSink receives completed utterances from the transcription
// provider and records them against the active session. Text is not
// windowed: each utterance lands at the elapsed time it completed.
//
// Implements stt.Callback.
type TextSink struct {
	store     *session.Store
	publisher *events.Publisher
	clock     func() time.Duration
	provider  string
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// NewTextSink creates a sink writing into the given store. The clock
// reports elapsed session time.
func NewTextSink(store *session.Store, publisher *events.Publisher, clock func() time.Duration, provider string, log zerolog.Logger, m *metrics.Metrics) *TextSink {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &TextSink{
		store:     store,
		publisher: publisher,
		clock:     clock,
		provider:  provider,
		log:       log.With().Str("modality", models.ModalityText).Logger(),
		metrics:   m,
	}
}

// OnUtterance records a completed utterance at the current elapsed
// time and publishes it. Empty text never reaches this point; the
// provider swallows recognition misses.
func (s *TextSink) OnUtterance(text string, confidence float64) {
	at := s.clock()
	s.store.InsertText(at, text)
	s.metrics.RecordUtterance()

	s.log.Debug().
		Dur("at", at).
		Float64("confidence", confidence).
		Msg("Utterance recorded")

	if s.publisher == nil {
		return
	}
	ev := models.UtteranceEvent{
		EventType:   models.EventTypeUtterance,
		SessionID:   s.store.ID(),
		TimestampMs: at.Milliseconds(),
		Text:        text,
		Confidence:  confidence,
	}
	if err := s.publisher.PublishUtterance(context.Background(), ev.SessionID, ev); err != nil {
		s.log.Error().Err(err).Msg("Failed to publish utterance event")
	}
}

// OnError logs a transcription error and keeps the session alive. A
// failed recognition never aborts a recording.
func (s *TextSink) OnError(err error) {
	s.metrics.RecordSTTError(s.provider)
	s.log.Warn().Err(err).Str("provider", s.provider).Msg("Transcription error, session continues")
}
