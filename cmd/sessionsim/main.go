// Command sessionsim runs one scripted interview session end to end
// against an in-memory report store and prints the reconstructed
// timeline, so the whole pipeline can be exercised without hardware,
// model weights or a broker.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"interview-emotion-engine/internal/interval"
	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/report"
	"interview-emotion-engine/internal/service/capture"
	capturemock "interview-emotion-engine/internal/service/capture/mock"
	classifymock "interview-emotion-engine/internal/service/classify/mock"
	"interview-emotion-engine/internal/service/recorder"
	"interview-emotion-engine/internal/service/stt"
	sttmock "interview-emotion-engine/internal/service/stt/mock"
	"interview-emotion-engine/internal/session"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.Nop()

	reports, err := report.NewInMemoryStore(logger, nil)
	if err != nil {
		log.Fatalf("failed to open report store: %v", err)
	}
	defer reports.Close()

	clock := capturemock.NewClock()
	videoDev := capturemock.NewDevice(16)
	audioDev := capturemock.NewDevice(16)

	rec := recorder.New(recorder.Config{
		Store:       session.NewStore(nil),
		Reports:     reports,
		VideoDevice: func() (capture.Device, error) { return videoDev, nil },
		AudioDevice: func() (capture.Device, error) { return audioDev, nil },
		VideoClassifier: classifymock.New(
			classifymock.Labeled(models.EmotionNeutral, 0.64),
			classifymock.Labeled(models.EmotionHappy, 0.72),
			classifymock.Labeled(models.EmotionHappy, 0.81),
		),
		AudioClassifier: classifymock.New(
			classifymock.Labeled(models.EmotionNeutral, 0.58),
		),
		TraitClassifier: classifymock.Traits{
			Scores: models.TraitScores{Openness: 0.7, Conscientiousness: 0.6, Extraversion: 0.4, Agreeableness: 0.8, Neuroticism: 0.3},
		},
		STT: func(ctx context.Context) (stt.Adapter, error) {
			return sttmock.NewScripted(sttmock.Utterance{Text: "tell me about your last project", Confidence: 0.93}), nil
		},
		Clock: clock.Now,
		Log:   logger,
	})

	id, err := rec.Begin(context.Background(), "Ada Lovelace", "Grace Hopper")
	if err != nil {
		log.Fatalf("failed to begin session: %v", err)
	}
	fmt.Printf("session started: %s\n", id)

	// Two aggregation windows of video, one of audio, one utterance.
	for i := 0; i < 6; i++ {
		clock.Advance(1500 * time.Millisecond)
		push(videoDev, byte(i))
		if i%2 == 0 {
			push(audioDev, byte(i))
		}
		waitDrained(videoDev, audioDev)
	}

	saved, err := rec.Stop()
	if err != nil {
		log.Fatalf("failed to stop session: %v", err)
	}
	fmt.Printf("report saved: id=%s interviewee=%q duration=%s\n",
		saved.ID, saved.IntervieweeName, saved.Duration())

	preds, err := loadPredictions(reports, saved)
	if err != nil {
		log.Fatalf("failed to load predictions: %v", err)
	}
	playback := report.NewPlayback(saved, preds, interval.Options{})

	fmt.Println("scrub timeline:")
	for at := time.Duration(0); at <= playback.Duration(); at += time.Second {
		frame := playback.FrameAt(at)
		fmt.Printf("  %6s video=%-8s audio=%-8s text=%q\n",
			at, label(frame.Video), label(frame.Audio), frame.Text)
	}
}

func push(dev *capturemock.Device, tag byte) {
	dev.Push(capture.Sample{
		Raw:    models.RawSample{Data: []byte{tag}},
		Tensor: []float32{float32(tag)},
	})
}

func waitDrained(devs ...*capturemock.Device) {
	deadline := time.Now().Add(2 * time.Second)
	for _, dev := range devs {
		for !dev.Drained() {
			if time.Now().After(deadline) {
				log.Fatal("device not drained in time")
			}
			time.Sleep(time.Millisecond)
		}
	}
	// Readers stamp samples after Read returns; give them a beat.
	time.Sleep(10 * time.Millisecond)
}

func loadPredictions(reports *report.Store, rec models.ReportRecord) (models.ReportPredictions, error) {
	return reports.GetPredictions(rec.PredictionsRef)
}

func label(em *models.Emission) string {
	if em == nil {
		return "-"
	}
	return string(em.Label)
}
