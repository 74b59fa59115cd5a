// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration holds all service configuration, grouped by concern.
type Configuration struct {
	Service       ServiceConfig
	Session       SessionConfig
	STT           STTConfig
	Storage       StorageConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds service identity and ports.
type ServiceConfig struct {
	Principal         string
	HTTPPort          string
	ObservabilityPort string
}

// SessionConfig holds recording parameters.
type SessionConfig struct {
	Window         time.Duration
	GapThreshold   time.Duration
	AudioQueueSize int
}

// STTConfig holds transcription provider settings.
type STTConfig struct {
	Provider      string
	LanguageCode  string
	SampleRateHz  int
	AudioEncoding string
}

// StorageConfig holds report and audio track storage settings.
type StorageConfig struct {
	Path      string
	AudioPath string
	InMemory  bool
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicEmission  string
	TopicUtterance string
	Principal      string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, falling back to
// defaults for missing or unparseable values.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-interview-emotion")

	return &Configuration{
		Service: ServiceConfig{
			Principal:         principal,
			HTTPPort:          envOrDefault("HTTP_PORT", "8080"),
			ObservabilityPort: envOrDefault("OBSERVABILITY_PORT", "9090"),
		},
		Session: SessionConfig{
			Window:         envOrDefaultDuration("SESSION_WINDOW", 4*time.Second),
			GapThreshold:   envOrDefaultDuration("SESSION_GAP_THRESHOLD", 6*time.Second),
			AudioQueueSize: envOrDefaultInt("SESSION_AUDIO_QUEUE_SIZE", 64),
		},
		STT: STTConfig{
			Provider:      envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:  envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:  envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			AudioEncoding: envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
		},
		Storage: StorageConfig{
			Path:      envOrDefault("STORAGE_PATH", "./data/reports"),
			AudioPath: envOrDefault("STORAGE_AUDIO_PATH", "./data/audio"),
			InMemory:  envOrDefaultBool("STORAGE_IN_MEMORY", false),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envOrDefaultList("KAFKA_BROKERS", nil),
			TopicEmission:  envOrDefault("KAFKA_TOPIC_EMISSIONS", "interview.session.emissions"),
			TopicUtterance: envOrDefault("KAFKA_TOPIC_UTTERANCES", "interview.session.utterances"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
