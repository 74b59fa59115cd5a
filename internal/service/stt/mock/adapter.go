// Package mock provides a mock STT adapter for testing without cloud
// credentials. It recognizes one scripted utterance per quantum of
// audio, and can simulate recognition misses, which produce no callback
// at all.
package mock

import (
	"context"
	"sync"

	"interview-emotion-engine/internal/service/stt"
)

// Utterance is one scripted recognition result. An empty Text simulates
// a recognition miss: the adapter swallows it and waits for more audio.
type Utterance struct {
	Text       string
	Confidence float64
}

// DefaultUtterances provides sample utterances for simulation.
var DefaultUtterances = []Utterance{
	{Text: "tell me about your last project", Confidence: 0.94},
	{Text: "i led the migration to the new platform", Confidence: 0.91},
	{Text: "", Confidence: 0}, // recognition miss
	{Text: "what was the hardest part", Confidence: 0.97},
	{Text: "keeping the old system running during cutover", Confidence: 0.89},
}

// FramesPerUtterance is how many audio frames the mock consumes before
// producing the next scripted result.
const FramesPerUtterance = 4

// Adapter implements stt.Adapter with scripted responses. Callbacks are
// invoked synchronously from SendAudio, which keeps tests deterministic.
type Adapter struct {
	mu       sync.Mutex
	cb       stt.Callback
	script   []Utterance
	i        int
	frameAcc int
	closed   bool
}

// New creates a mock adapter replaying DefaultUtterances.
func New() *Adapter {
	return NewScripted(DefaultUtterances...)
}

// NewScripted creates a mock adapter replaying the given script,
// cycling when it is exhausted.
func NewScripted(script ...Utterance) *Adapter {
	return &Adapter{script: script}
}

// Start begins a mock transcription session.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

// SendAudio accumulates audio frames and emits the next scripted
// utterance once enough have arrived. Scripted misses consume their
// frames but invoke no callback.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil || len(a.script) == 0 {
		return nil
	}

	a.frameAcc++
	if a.frameAcc < FramesPerUtterance {
		return nil
	}
	a.frameAcc = 0

	utt := a.script[a.i%len(a.script)]
	a.i++

	if utt.Text == "" {
		return nil
	}
	a.cb.OnUtterance(utt.Text, utt.Confidence)
	return nil
}

// Close ends the mock session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
