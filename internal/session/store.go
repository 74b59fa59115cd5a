// Package session holds the in-memory state of the interview currently
// being recorded and coordinates its finalization into a report.
package session

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
)

var (
	// ErrSessionActive is returned by Begin while a session is already
	// recording.
	ErrSessionActive = errors.New("a session is already active")

	// ErrNoSession is returned by operations that need an active or
	// ended session when none exists.
	ErrNoSession = errors.New("no active session")
)

// Snapshot is an immutable copy of a session's accumulated state, taken
// for finalization. Maps are copied so later mutation of the store
// cannot race with persistence.
type Snapshot struct {
	ID              string
	IntervieweeName string
	InterviewerName string
	StartTime       time.Time
	EndTime         time.Time
	SessionEnd      time.Duration
	Video           models.EmissionMap
	Audio           models.EmissionMap
	Text            models.TextMap
	Traits          *models.TraitScores
	AudioPath       string
}

// Store accumulates emissions and utterances for one session at a time.
// All three capture workers and the transcription callback write into
// it concurrently.
type Store struct {
	mu sync.Mutex

	active          bool
	id              string
	intervieweeName string
	interviewerName string
	startTime       time.Time
	endTime         time.Time
	sessionEnd      time.Duration

	video  models.EmissionMap
	audio  models.EmissionMap
	text   models.TextMap
	traits *models.TraitScores

	audioPath string

	metrics *metrics.Metrics
}

// NewStore creates an empty session store.
func NewStore(m *metrics.Metrics) *Store {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Store{
		video:   make(models.EmissionMap),
		audio:   make(models.EmissionMap),
		text:    make(models.TextMap),
		metrics: m,
	}
}

// Begin opens a new session and returns its generated id. Only one
// session may be active at a time.
func (s *Store) Begin(intervieweeName, interviewerName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return "", ErrSessionActive
	}

	s.active = true
	s.id = uuid.NewString()
	s.intervieweeName = intervieweeName
	s.interviewerName = interviewerName
	s.startTime = time.Now()
	s.endTime = time.Time{}
	s.sessionEnd = 0
	s.video = make(models.EmissionMap)
	s.audio = make(models.EmissionMap)
	s.text = make(models.TextMap)
	s.traits = nil
	s.audioPath = ""

	s.metrics.RecordSessionStart()
	return s.id, nil
}

// ID returns the active session id, or "" when idle.
func (s *Store) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// MarkEnd records the session's final elapsed time and wall-clock end.
// Emissions inserted afterwards (late window flushes) are still
// accepted.
func (s *Store) MarkEnd(elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrNoSession
	}
	s.endTime = time.Now()
	s.sessionEnd = elapsed
	return nil
}

// InsertVideo records a video emission at its elapsed timestamp.
// Inserts always land, including after a Clear: late emissions go into
// the fresh maps and are discarded by the next Begin.
func (s *Store) InsertVideo(at time.Duration, e models.Emission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video[at] = e
}

// InsertAudio records an audio emission at its elapsed timestamp.
func (s *Store) InsertAudio(at time.Duration, e models.Emission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio[at] = e
}

// InsertText records a completed utterance at its elapsed timestamp.
func (s *Store) InsertText(at time.Duration, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text[at] = text
}

// SetTraitScores records the session-level personality scores.
func (s *Store) SetTraitScores(t models.TraitScores) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.traits = &t
}

// SetAudioPath records where the raw session audio was written.
func (s *Store) SetAudioPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.audioPath = path
}

// ConcatenatedText joins all utterances in timestamp order, separated
// by single spaces. Input to the trait classifier.
func (s *Store) ConcatenatedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]time.Duration, 0, len(s.text))
	for k := range s.text {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, s.text[k])
	}
	return strings.Join(parts, " ")
}

// Snapshot returns a deep copy of the session state. The store is left
// intact so a failed persistence can be retried.
func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() (Snapshot, error) {
	if !s.active {
		return Snapshot{}, ErrNoSession
	}

	video := make(models.EmissionMap, len(s.video))
	for k, v := range s.video {
		video[k] = v
	}
	audio := make(models.EmissionMap, len(s.audio))
	for k, v := range s.audio {
		audio[k] = v
	}
	text := make(models.TextMap, len(s.text))
	for k, v := range s.text {
		text[k] = v
	}
	var traits *models.TraitScores
	if s.traits != nil {
		t := *s.traits
		traits = &t
	}

	return Snapshot{
		ID:              s.id,
		IntervieweeName: s.intervieweeName,
		InterviewerName: s.interviewerName,
		StartTime:       s.startTime,
		EndTime:         s.endTime,
		SessionEnd:      s.sessionEnd,
		Video:           video,
		Audio:           audio,
		Text:            text,
		Traits:          traits,
		AudioPath:       s.audioPath,
	}, nil
}

// Clear resets the modality maps to fresh empty ones and returns the
// store to idle. The interviewee and interviewer names persist until
// the next Begin, and late inserts land in the fresh maps.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.active = false
	s.id = ""
	s.startTime = time.Time{}
	s.endTime = time.Time{}
	s.sessionEnd = 0
	s.video = make(models.EmissionMap)
	s.audio = make(models.EmissionMap)
	s.text = make(models.TextMap)
	s.traits = nil
	s.audioPath = ""
}

// SnapshotAndClear atomically copies the session state and resets the
// store.
func (s *Store) SnapshotAndClear() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshotLocked()
	if err != nil {
		return Snapshot{}, err
	}
	s.clearLocked()
	return snap, nil
}
