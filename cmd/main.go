package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interview-emotion-engine/internal/app"
	"interview-emotion-engine/internal/config"
	"interview-emotion-engine/internal/events"
	httpapi "interview-emotion-engine/internal/http"
	"interview-emotion-engine/internal/interval"
	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability"
	"interview-emotion-engine/internal/report"
	"interview-emotion-engine/internal/service/capture"
	capturemock "interview-emotion-engine/internal/service/capture/mock"
	"interview-emotion-engine/internal/service/classify"
	classifymock "interview-emotion-engine/internal/service/classify/mock"
	"interview-emotion-engine/internal/service/recorder"
	"interview-emotion-engine/internal/service/stt"
	sttgoogle "interview-emotion-engine/internal/service/stt/google"
	sttmock "interview-emotion-engine/internal/service/stt/mock"
	"interview-emotion-engine/internal/session"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	logger := application.Logger

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Application startup failed")
	}

	var reports *report.Store
	var err error
	if cfg.Storage.InMemory {
		reports, err = report.NewInMemoryStore(logger, nil)
	} else {
		reports, err = report.NewStore(cfg.Storage.Path, logger, nil)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("Failed to open report store")
	}
	defer reports.Close()

	// Kafka publisher with separate topics for emissions and utterances
	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicEmission:  cfg.Kafka.TopicEmission,
		TopicUtterance: cfg.Kafka.TopicUtterance,
		Principal:      cfg.Kafka.Principal,
	})
	defer publisher.Close()

	rec := recorder.New(recorder.Config{
		Store:           session.NewStore(nil),
		Reports:         reports,
		VideoDevice:     syntheticDevice(40 * time.Millisecond),
		AudioDevice:     syntheticDevice(100 * time.Millisecond),
		VideoClassifier: syntheticClassifier(),
		AudioClassifier: syntheticClassifier(),
		TraitClassifier: classifymock.Traits{
			Scores: models.TraitScores{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.5, Neuroticism: 0.5},
		},
		STT:            sttFactory(cfg),
		AudioDir:       cfg.Storage.AudioPath,
		Publisher:      publisher,
		Window:         cfg.Session.Window,
		AudioQueueSize: cfg.Session.AudioQueueSize,
		Log:            logger,
	})

	playbackOpts := interval.Options{
		GapThreshold: cfg.Session.GapThreshold,
		FrameSize:    cfg.Session.Window,
	}
	handlers := httpapi.NewHandlers(rec, reports, playbackOpts, logger, nil)
	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      httpapi.NewRouter(application, handlers),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	obsServer := observability.NewServer(":"+cfg.Service.ObservabilityPort, func() error {
		_, err := reports.ListRecords()
		return err
	})
	obsServer.Start()

	go func() {
		logger.Info().Str("port", cfg.Service.HTTPPort).Msg("Interview emotion engine API started")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutting down")
	rec.Abort()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown failed")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Observability server shutdown failed")
	}
	application.Shutdown()
}

// syntheticDevice feeds frames on a fixed interval. Real camera and
// microphone capture happens in the desktop client; the service only
// ever sees already-decoded frames, which the synthetic feed stands in
// for.
func syntheticDevice(interval time.Duration) func() (capture.Device, error) {
	return func() (capture.Device, error) {
		dev := capturemock.NewDevice(64)
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				ok := dev.Push(capture.Sample{
					Raw:    models.RawSample{Data: []byte{0}},
					Tensor: make([]float32, 1),
				})
				if !ok {
					return
				}
			}
		}()
		return dev, nil
	}
}

func syntheticClassifier() classify.Classifier {
	return classifymock.New(
		classifymock.Labeled(models.EmotionNeutral, 0.62),
		classifymock.Labeled(models.EmotionNeutral, 0.55),
		classifymock.Labeled(models.EmotionHappy, 0.71),
		classifymock.Labeled(models.EmotionNeutral, 0.58),
		classifymock.Labeled(models.EmotionSurprise, 0.49),
	)
}

func sttFactory(cfg *config.Configuration) func(ctx context.Context) (stt.Adapter, error) {
	switch cfg.STT.Provider {
	case "google":
		return func(ctx context.Context) (stt.Adapter, error) {
			return sttgoogle.NewWithConfig(ctx, sttgoogle.Config{
				LanguageCode:  cfg.STT.LanguageCode,
				SampleRateHz:  int32(cfg.STT.SampleRateHz),
				AudioEncoding: cfg.STT.AudioEncoding,
			})
		}
	case "none":
		return nil
	default:
		return func(ctx context.Context) (stt.Adapter, error) {
			return sttmock.New(), nil
		}
	}
}
