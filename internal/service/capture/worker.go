package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
	"interview-emotion-engine/internal/service/aggregate"
)

// Emit receives each finalized window emission.
type Emit func(em models.Emission)

// Config wires one worker to its device and aggregation window.
type Config struct {
	Modality   string
	Device     Device
	Aggregator *aggregate.WindowAggregator

	// Clock reports elapsed session time.
	Clock func() time.Duration

	// Emit is invoked for every closed window with usable samples.
	Emit Emit

	// Forward, when set, receives the raw bytes of every sample read
	// while recording. The audio worker uses it to feed transcription.
	Forward func(ctx context.Context, raw []byte) error

	// QueueSize > 0 decouples classification from device reads behind
	// a bounded queue. Samples arriving at a full queue are dropped.
	QueueSize int

	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

type timedSample struct {
	sample Sample
	at     time.Duration
}

// Worker drives one modality's capture loop for a single session:
// read from the device, classify into the window, emit on close.
// Workers are single-use; the recorder builds fresh ones per session.
type Worker struct {
	cfg     Config
	machine *Machine
	log     zerolog.Logger
	metrics *metrics.Metrics

	// aggMu guards the aggregator, which is shared between the
	// processing goroutine and Resume/Stop.
	aggMu sync.Mutex

	queue     chan timedSample
	wg        sync.WaitGroup
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewWorker creates a worker in IDLE state.
func NewWorker(cfg Config) *Worker {
	m := cfg.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Worker{
		cfg:     cfg,
		machine: NewMachine(),
		log:     cfg.Log.With().Str("modality", cfg.Modality).Logger(),
		metrics: m,
	}
}

// State returns the worker's lifecycle state.
func (w *Worker) State() State {
	return w.machine.State()
}

// Start begins the capture loop.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.machine.Start(); err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.cfg.Aggregator.Reset(w.cfg.Clock())

	if w.cfg.QueueSize > 0 {
		w.queue = make(chan timedSample, w.cfg.QueueSize)
		w.wg.Add(1)
		go w.classifyLoop()
	}

	w.wg.Add(1)
	go w.readLoop(ctx)

	w.log.Info().Msg("Capture started")
	return nil
}

// Pause suspends classification. The device keeps draining so stale
// frames cannot pile up, but samples are discarded and the window
// tally is preserved.
func (w *Worker) Pause() error {
	if err := w.machine.Pause(); err != nil {
		return err
	}
	w.log.Info().Msg("Capture paused")
	return nil
}

// Resume continues classification. A window left empty across the
// pause gets its timer restarted so the pause gap is not counted
// against it.
func (w *Worker) Resume() error {
	if err := w.machine.Resume(); err != nil {
		return err
	}
	w.aggMu.Lock()
	if w.cfg.Aggregator.Pending() == 0 {
		w.cfg.Aggregator.Reset(w.cfg.Clock())
	}
	w.aggMu.Unlock()
	w.log.Info().Msg("Capture resumed")
	return nil
}

// Stop ends the capture loop, waits for in-flight samples, and flushes
// the trailing partial window as a final emission.
func (w *Worker) Stop() error {
	if err := w.machine.BeginStop(); err != nil {
		return err
	}

	w.closeDevice()
	w.wg.Wait()
	if w.cancel != nil {
		w.cancel()
	}

	w.aggMu.Lock()
	em, ok := w.cfg.Aggregator.Flush(w.cfg.Clock())
	w.aggMu.Unlock()
	if ok && w.cfg.Emit != nil {
		w.cfg.Emit(em)
	}

	w.machine.Finish()
	w.log.Info().Msg("Capture stopped")
	return nil
}

// Abort tears the worker down without flushing or emitting anything.
// Idempotent; aborting an idle worker is a no-op.
func (w *Worker) Abort() {
	if !w.machine.Abort() {
		return
	}

	w.closeDevice()
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.aggMu.Lock()
	w.cfg.Aggregator.Reset(w.cfg.Clock())
	w.aggMu.Unlock()

	w.log.Info().Msg("Capture aborted")
}

func (w *Worker) closeDevice() {
	w.closeOnce.Do(func() {
		if err := w.cfg.Device.Close(); err != nil {
			w.log.Warn().Err(err).Msg("Error closing capture device")
		}
	})
}

func (w *Worker) readLoop(ctx context.Context) {
	defer w.wg.Done()
	if w.queue != nil {
		defer close(w.queue)
	}

	for {
		sample, err := w.cfg.Device.Read(ctx)
		if err != nil {
			if errors.Is(err, ErrDeviceClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.log.Warn().Err(err).Msg("Device read failed, sample skipped")
			continue
		}

		switch w.machine.State() {
		case StateStopping, StateIdle:
			return
		case StatePaused:
			// Drained and discarded. Keeps the device from
			// serving stale frames on resume.
			continue
		}

		if w.cfg.Forward != nil {
			if err := w.cfg.Forward(ctx, sample.Raw.Data); err != nil {
				w.log.Warn().Err(err).Msg("Failed to forward raw sample")
			}
		}

		at := w.cfg.Clock()
		if w.queue != nil {
			select {
			case w.queue <- timedSample{sample: sample, at: at}:
			default:
				w.metrics.RecordSampleDropped(w.cfg.Modality)
				w.log.Debug().Msg("Classification queue full, sample dropped")
			}
			continue
		}
		w.process(sample, at)
	}
}

func (w *Worker) classifyLoop() {
	defer w.wg.Done()
	for item := range w.queue {
		w.process(item.sample, item.at)
	}
}

func (w *Worker) process(s Sample, at time.Duration) {
	w.aggMu.Lock()
	defer w.aggMu.Unlock()

	w.cfg.Aggregator.Accept(s.Raw, s.Tensor, at)
	if em, ok := w.cfg.Aggregator.MaybeClose(w.cfg.Clock()); ok && w.cfg.Emit != nil {
		w.cfg.Emit(em)
	}
}
