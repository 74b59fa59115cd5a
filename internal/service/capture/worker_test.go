package capture_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
	"interview-emotion-engine/internal/service/aggregate"
	"interview-emotion-engine/internal/service/capture"
	capturemock "interview-emotion-engine/internal/service/capture/mock"
	classifymock "interview-emotion-engine/internal/service/classify/mock"
)

const ms = time.Millisecond

type collector struct {
	mu        sync.Mutex
	emissions []models.Emission
}

func (c *collector) emit(em models.Emission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emissions = append(c.emissions, em)
}

func (c *collector) all() []models.Emission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Emission{}, c.emissions...)
}

type fixture struct {
	worker *capture.Worker
	device *capturemock.Device
	clock  *capturemock.Clock
	out    *collector
}

func newFixture(t *testing.T, queueSize int, script ...classifymock.Result) *fixture {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	clock := capturemock.NewClock()
	device := capturemock.NewDevice(16)
	out := &collector{}

	agg := aggregate.NewWindowAggregator(models.ModalityVideo, classifymock.New(script...), aggregate.DefaultWindow, zerolog.Nop(), m)
	worker := capture.NewWorker(capture.Config{
		Modality:   models.ModalityVideo,
		Device:     device,
		Aggregator: agg,
		Clock:      clock.Now,
		Emit:       out.emit,
		QueueSize:  queueSize,
		Log:        zerolog.Nop(),
		Metrics:    m,
	})
	return &fixture{worker: worker, device: device, clock: clock, out: out}
}

func (f *fixture) push(t *testing.T, tag byte) {
	t.Helper()
	if !f.device.Push(capture.Sample{Raw: models.RawSample{Data: []byte{tag}}}) {
		t.Fatal("push failed")
	}
}

func (f *fixture) waitDrained(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !f.device.Drained() {
		if time.Now().After(deadline) {
			t.Fatal("device never drained")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWorker_EmitsWhenWindowCloses(t *testing.T) {
	f := newFixture(t, 0,
		classifymock.Labeled(models.EmotionHappy, 0.8),
		classifymock.Labeled(models.EmotionHappy, 0.9),
		classifymock.Labeled(models.EmotionSad, 0.7),
	)
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Set(1000 * ms)
	f.push(t, 1)
	f.waitDrained(t)
	f.clock.Set(2000 * ms)
	f.push(t, 2)
	f.waitDrained(t)
	f.clock.Set(4500 * ms)
	f.push(t, 3)
	f.waitDrained(t)

	if err := f.worker.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	ems := f.out.all()
	if len(ems) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(ems))
	}
	if ems[0].Label != models.EmotionHappy {
		t.Errorf("expected Happy to win 2-1, got %s", ems[0].Label)
	}
	if ems[0].Timestamp != 4500*ms {
		t.Errorf("expected emission at the window close, got %v", ems[0].Timestamp)
	}
	if ems[0].Sample.Data[0] != 2 {
		t.Errorf("expected the highest-confidence Happy sample (tag 2), got %v", ems[0].Sample.Data)
	}
}

func TestWorker_StopFlushesPartialWindow(t *testing.T) {
	f := newFixture(t, 0, classifymock.Labeled(models.EmotionNeutral, 0.9))
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Set(1000 * ms)
	f.push(t, 1)
	f.waitDrained(t)

	f.clock.Set(2000 * ms)
	if err := f.worker.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	ems := f.out.all()
	if len(ems) != 1 {
		t.Fatalf("expected the trailing partial window to be flushed, got %d emissions", len(ems))
	}
	if ems[0].Label != models.EmotionNeutral || ems[0].Timestamp != 2000*ms {
		t.Errorf("unexpected flushed emission %+v", ems[0])
	}
	if f.worker.State() != capture.StateIdle {
		t.Errorf("expected idle after stop, got %v", f.worker.State())
	}
}

func TestWorker_PauseDiscardsSamplesButKeepsTally(t *testing.T) {
	// Recorded samples are Sad; samples pushed during pause would be
	// Happy and would flip the tie toward Happy if not discarded.
	f := newFixture(t, 0, classifymock.Labeled(models.EmotionSad, 0.9))
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Set(1000 * ms)
	f.push(t, 1)
	f.waitDrained(t)

	if err := f.worker.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	f.push(t, 2)
	f.push(t, 3)
	f.waitDrained(t)

	f.clock.Set(3000 * ms)
	if err := f.worker.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}

	f.clock.Set(4500 * ms)
	f.push(t, 4)
	f.waitDrained(t)

	f.clock.Set(5000 * ms)
	if err := f.worker.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	ems := f.out.all()
	if len(ems) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(ems))
	}
	if ems[0].Label != models.EmotionSad {
		t.Errorf("expected only recorded samples to count, got %s", ems[0].Label)
	}
}

func TestWorker_ResumeOntoEmptyWindowRestartsTimer(t *testing.T) {
	f := newFixture(t, 0, classifymock.Labeled(models.EmotionNeutral, 0.9))
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Set(500 * ms)
	if err := f.worker.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	// Long pause. Without the timer reset the first sample after
	// resume would close a window on its own.
	f.clock.Set(6000 * ms)
	if err := f.worker.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}

	f.clock.Set(6100 * ms)
	f.push(t, 1)
	f.waitDrained(t)
	f.clock.Set(10100 * ms)
	f.push(t, 2)
	f.waitDrained(t)

	if err := f.worker.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	ems := f.out.all()
	if len(ems) != 1 {
		t.Fatalf("expected both samples in one window, got %d emissions", len(ems))
	}
	if ems[0].Timestamp != 10100*ms {
		t.Errorf("expected the window to close at 10100ms, got %v", ems[0].Timestamp)
	}
}

func TestWorker_AbortEmitsNothing(t *testing.T) {
	f := newFixture(t, 0, classifymock.Labeled(models.EmotionHappy, 0.9))
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Set(1000 * ms)
	f.push(t, 1)
	f.waitDrained(t)

	f.worker.Abort()
	f.worker.Abort() // idempotent

	if len(f.out.all()) != 0 {
		t.Error("expected no emissions after abort")
	}
	if f.worker.State() != capture.StateIdle {
		t.Errorf("expected idle after abort, got %v", f.worker.State())
	}
}

func TestWorker_StartTwice(t *testing.T) {
	f := newFixture(t, 0, classifymock.Labeled(models.EmotionHappy, 0.9))
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.worker.Abort()

	if err := f.worker.Start(context.Background()); err != capture.ErrAlreadyActive {
		t.Errorf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestWorker_QueuedClassification(t *testing.T) {
	f := newFixture(t, 8,
		classifymock.Labeled(models.EmotionFear, 0.8),
	)
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Set(1000 * ms)
	f.push(t, 1)
	f.push(t, 2)
	f.waitDrained(t)

	// Stop drains the queue before flushing, so both samples land in
	// the flushed window.
	f.clock.Set(2000 * ms)
	if err := f.worker.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	ems := f.out.all()
	if len(ems) != 1 {
		t.Fatalf("expected 1 emission through the queue, got %d", len(ems))
	}
	if ems[0].Label != models.EmotionFear {
		t.Errorf("expected Fear, got %s", ems[0].Label)
	}
	if ems[0].Timestamp != 2000*ms {
		t.Errorf("expected flush at 2000ms, got %v", ems[0].Timestamp)
	}
}

func TestWorker_ForwardReceivesRawBytes(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	clock := capturemock.NewClock()
	device := capturemock.NewDevice(16)
	out := &collector{}

	var mu sync.Mutex
	var forwarded [][]byte

	agg := aggregate.NewWindowAggregator(models.ModalityAudio, classifymock.New(classifymock.Labeled(models.EmotionNeutral, 0.9)), aggregate.DefaultWindow, zerolog.Nop(), m)
	worker := capture.NewWorker(capture.Config{
		Modality:   models.ModalityAudio,
		Device:     device,
		Aggregator: agg,
		Clock:      clock.Now,
		Emit:       out.emit,
		Forward: func(_ context.Context, raw []byte) error {
			mu.Lock()
			defer mu.Unlock()
			forwarded = append(forwarded, raw)
			return nil
		},
		Log:     zerolog.Nop(),
		Metrics: m,
	})

	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	device.Push(capture.Sample{Raw: models.RawSample{Data: []byte("pcm")}})

	deadline := time.Now().Add(2 * time.Second)
	for !device.Drained() {
		if time.Now().After(deadline) {
			t.Fatal("device never drained")
		}
		time.Sleep(time.Millisecond)
	}
	if err := worker.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(forwarded) != 1 || string(forwarded[0]) != "pcm" {
		t.Errorf("expected raw bytes forwarded once, got %v", forwarded)
	}
}
