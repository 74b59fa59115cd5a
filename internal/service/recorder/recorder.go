// Package recorder orchestrates one interview session end to end:
// starting the capture workers, routing emissions and utterances into
// the session store, and finalizing the session into a persisted
// report.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/events"
	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
	"interview-emotion-engine/internal/report"
	"interview-emotion-engine/internal/service/aggregate"
	"interview-emotion-engine/internal/service/capture"
	"interview-emotion-engine/internal/service/classify"
	"interview-emotion-engine/internal/service/stt"
	"interview-emotion-engine/internal/session"
)

// defaultAudioQueueSize bounds the audio classification queue. Audio
// feature extraction is slower than the device frame rate, so
// classification is decoupled and overload drops samples instead of
// blocking the device.
const defaultAudioQueueSize = 64

// Config wires the recorder to its devices, classifiers and stores.
type Config struct {
	Store   *session.Store
	Reports *report.Store

	// Device factories are invoked once per session; devices are
	// single-use, like the workers that own them.
	VideoDevice func() (capture.Device, error)
	AudioDevice func() (capture.Device, error)

	VideoClassifier classify.Classifier
	AudioClassifier classify.Classifier
	TraitClassifier classify.TraitClassifier

	// STT is invoked once per session. Nil disables transcription.
	STT func(ctx context.Context) (stt.Adapter, error)

	// AudioDir is where the raw audio track of each session is written.
	// Empty disables track recording.
	AudioDir string

	Publisher *events.Publisher

	// Window overrides the aggregation window. Zero means the default.
	Window time.Duration

	// AudioQueueSize overrides the audio classification queue bound.
	// Zero means the default.
	AudioQueueSize int

	// Clock overrides the elapsed-session clock. Nil means wall time
	// since session start.
	Clock func() time.Duration

	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// Recorder runs at most one session at a time.
type Recorder struct {
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	sessionID string
	clock     func() time.Duration
	video     *capture.Worker
	audio     *capture.Worker
	sttAdpt   stt.Adapter
	track     *audioTrack
	stopped   bool
}

// New creates a recorder.
func New(cfg Config) *Recorder {
	m := cfg.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Recorder{cfg: cfg, log: cfg.Log, metrics: m}
}

// Begin opens a session and starts all capture streams. Returns the
// session id.
func (r *Recorder) Begin(ctx context.Context, intervieweeName, interviewerName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionID != "" {
		return "", session.ErrSessionActive
	}

	id, err := r.cfg.Store.Begin(intervieweeName, interviewerName)
	if err != nil {
		return "", err
	}

	clock := r.cfg.Clock
	if clock == nil {
		start := time.Now()
		clock = func() time.Duration { return time.Since(start) }
	}

	if err := r.startStreams(ctx, id, clock); err != nil {
		r.teardownLocked()
		r.cfg.Store.Clear()
		return "", err
	}

	r.sessionID = id
	r.clock = clock
	r.stopped = false
	r.log.Info().Str("sessionId", id).Msg("Session started")
	return id, nil
}

func (r *Recorder) startStreams(ctx context.Context, id string, clock func() time.Duration) error {
	videoDev, err := r.cfg.VideoDevice()
	if err != nil {
		return fmt.Errorf("failed to open video device: %w", err)
	}
	audioDev, err := r.cfg.AudioDevice()
	if err != nil {
		videoDev.Close()
		return fmt.Errorf("failed to open audio device: %w", err)
	}

	if r.cfg.AudioDir != "" {
		track, err := newAudioTrack(r.cfg.AudioDir, id)
		if err != nil {
			videoDev.Close()
			audioDev.Close()
			return err
		}
		r.track = track
	}

	var send func(ctx context.Context, raw []byte) error
	if r.cfg.STT != nil {
		adapter, err := r.cfg.STT(ctx)
		if err != nil {
			videoDev.Close()
			audioDev.Close()
			r.discardTrack()
			return fmt.Errorf("failed to open transcription: %w", err)
		}
		sink := aggregate.NewTextSink(r.cfg.Store, r.cfg.Publisher, clock, "stt", r.log, r.metrics)
		if err := adapter.Start(ctx, sink); err != nil {
			videoDev.Close()
			audioDev.Close()
			adapter.Close()
			r.discardTrack()
			return fmt.Errorf("failed to start transcription: %w", err)
		}
		r.sttAdpt = adapter
		send = adapter.SendAudio
	}
	forward := r.forwardFunc(send)

	queueSize := r.cfg.AudioQueueSize
	if queueSize <= 0 {
		queueSize = defaultAudioQueueSize
	}

	r.video = capture.NewWorker(capture.Config{
		Modality:   models.ModalityVideo,
		Device:     videoDev,
		Aggregator: aggregate.NewWindowAggregator(models.ModalityVideo, r.cfg.VideoClassifier, r.cfg.Window, r.log, r.metrics),
		Clock:      clock,
		Emit:       r.emitFunc(id, models.ModalityVideo),
		Log:        r.log,
		Metrics:    r.metrics,
	})
	r.audio = capture.NewWorker(capture.Config{
		Modality:   models.ModalityAudio,
		Device:     audioDev,
		Aggregator: aggregate.NewWindowAggregator(models.ModalityAudio, r.cfg.AudioClassifier, r.cfg.Window, r.log, r.metrics),
		Clock:      clock,
		Emit:       r.emitFunc(id, models.ModalityAudio),
		Forward:    forward,
		QueueSize:  queueSize,
		Log:        r.log,
		Metrics:    r.metrics,
	})

	if err := r.video.Start(ctx); err != nil {
		videoDev.Close()
		audioDev.Close()
		r.discardTrack()
		return err
	}
	if err := r.audio.Start(ctx); err != nil {
		r.video.Abort()
		audioDev.Close()
		r.discardTrack()
		return err
	}
	return nil
}

// forwardFunc tees raw audio bytes into the session track and the
// transcription stream. Returns nil when neither is configured.
func (r *Recorder) forwardFunc(send func(ctx context.Context, raw []byte) error) func(ctx context.Context, raw []byte) error {
	track := r.track
	if track == nil && send == nil {
		return nil
	}
	return func(ctx context.Context, raw []byte) error {
		if track != nil {
			if err := track.Write(raw); err != nil {
				r.log.Warn().Err(err).Msg("Failed to write audio track")
			}
		}
		if send == nil {
			return nil
		}
		return send(ctx, raw)
	}
}

func (r *Recorder) discardTrack() {
	if r.track != nil {
		r.track.Discard()
		r.track = nil
	}
}

func (r *Recorder) emitFunc(id, modality string) capture.Emit {
	insert := r.cfg.Store.InsertVideo
	if modality == models.ModalityAudio {
		insert = r.cfg.Store.InsertAudio
	}
	return func(em models.Emission) {
		insert(em.Timestamp, em)
		if r.cfg.Publisher == nil {
			return
		}
		ev := models.EmissionEvent{
			EventType:   models.EventTypeEmission,
			SessionID:   id,
			Modality:    modality,
			TimestampMs: em.Timestamp.Milliseconds(),
			Label:       string(em.Label),
		}
		if err := r.cfg.Publisher.PublishEmission(context.Background(), id, ev); err != nil {
			r.log.Error().Err(err).Str("modality", modality).Msg("Failed to publish emission event")
		}
	}
}

// Pause suspends both capture streams.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessionID == "" {
		return session.ErrNoSession
	}
	if err := r.video.Pause(); err != nil {
		return err
	}
	if err := r.audio.Pause(); err != nil {
		// Roll the video worker back so the two streams agree.
		if rerr := r.video.Resume(); rerr != nil {
			r.log.Error().Err(rerr).Msg("Failed to roll back video pause")
		}
		return err
	}
	r.log.Info().Str("sessionId", r.sessionID).Msg("Session paused")
	return nil
}

// Resume continues both capture streams.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessionID == "" {
		return session.ErrNoSession
	}
	if err := r.video.Resume(); err != nil {
		return err
	}
	if err := r.audio.Resume(); err != nil {
		return err
	}
	r.log.Info().Str("sessionId", r.sessionID).Msg("Session resumed")
	return nil
}

// Stop ends the session and persists the report. On a persistence
// failure the accumulated session data is kept and Finalize may be
// called again to retry.
func (r *Recorder) Stop() (models.ReportRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionID == "" {
		return models.ReportRecord{}, session.ErrNoSession
	}

	if !r.stopped {
		// A retry after a partially failed Stop finds some workers
		// already idle; that is not a failure.
		if err := r.video.Stop(); err != nil && !errors.Is(err, capture.ErrNotActive) {
			return models.ReportRecord{}, err
		}
		if err := r.audio.Stop(); err != nil && !errors.Is(err, capture.ErrNotActive) {
			return models.ReportRecord{}, err
		}
		if r.sttAdpt != nil {
			if err := r.sttAdpt.Close(); err != nil {
				r.log.Warn().Err(err).Msg("Error closing transcription")
			}
		}
		if r.track != nil {
			if err := r.track.Close(); err != nil {
				r.log.Warn().Err(err).Msg("Error closing audio track")
			}
			r.cfg.Store.SetAudioPath(r.track.path)
			r.track = nil
		}
		if err := r.cfg.Store.MarkEnd(r.clock()); err != nil {
			return models.ReportRecord{}, err
		}
		r.classifyTraits()
		r.stopped = true
	}

	return r.finalizeLocked()
}

// Finalize retries report persistence after a failed Stop.
func (r *Recorder) Finalize() (models.ReportRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionID == "" {
		return models.ReportRecord{}, session.ErrNoSession
	}
	if !r.stopped {
		return models.ReportRecord{}, fmt.Errorf("session still recording")
	}
	return r.finalizeLocked()
}

func (r *Recorder) finalizeLocked() (models.ReportRecord, error) {
	snap, err := r.cfg.Store.Snapshot()
	if err != nil {
		return models.ReportRecord{}, err
	}

	duration := snap.EndTime.Sub(snap.StartTime).Seconds()
	rec, preds := report.Assemble(snap)
	saved, err := r.cfg.Reports.SaveReport(rec, preds)
	if err != nil {
		r.metrics.RecordSessionEnd(false, duration)
		r.log.Error().
			Err(err).
			Str("sessionId", snap.ID).
			Msg("Report persistence failed, session data kept for retry")
		return models.ReportRecord{}, err
	}

	r.cfg.Store.Clear()
	r.teardownLocked()
	r.metrics.RecordSessionEnd(true, duration)
	r.log.Info().
		Str("sessionId", snap.ID).
		Str("reportId", saved.ID).
		Msg("Session finalized")
	return saved, nil
}

// classifyTraits scores the full transcript once. Failures are logged
// and the report is saved without trait scores.
func (r *Recorder) classifyTraits() {
	if r.cfg.TraitClassifier == nil {
		return
	}
	text := r.cfg.Store.ConcatenatedText()
	if text == "" {
		return
	}
	scores, err := r.cfg.TraitClassifier.ClassifyTraits(text)
	if err != nil {
		r.log.Warn().Err(err).Msg("Trait classification failed, report saved without traits")
		return
	}
	r.cfg.Store.SetTraitScores(scores)
}

// Abort discards the session without persisting anything. Idempotent.
func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionID == "" {
		return
	}
	id := r.sessionID
	if r.video != nil {
		r.video.Abort()
	}
	if r.audio != nil {
		r.audio.Abort()
	}
	r.discardTrack()
	r.teardownLocked()
	r.cfg.Store.Clear()
	r.log.Info().Str("sessionId", id).Msg("Session aborted")
}

func (r *Recorder) teardownLocked() {
	if r.sttAdpt != nil {
		r.sttAdpt.Close()
		r.sttAdpt = nil
	}
	r.video = nil
	r.audio = nil
	r.sessionID = ""
	r.clock = nil
	r.stopped = false
}
