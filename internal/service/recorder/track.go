package recorder

import (
	"fmt"
	"os"
	"path/filepath"
)

// audioTrack captures the raw audio bytes of one session to disk, so
// the saved report can point at a replayable track. Written only from
// the audio worker's read loop; closed after that loop is joined.
type audioTrack struct {
	path string
	f    *os.File
}

func newAudioTrack(dir, sessionID string) (*audioTrack, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	path := filepath.Join(dir, sessionID+".pcm")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio track: %w", err)
	}
	return &audioTrack{path: path, f: f}, nil
}

func (t *audioTrack) Write(p []byte) error {
	_, err := t.f.Write(p)
	return err
}

func (t *audioTrack) Close() error {
	return t.f.Close()
}

// Discard closes and removes the track, for aborted sessions.
func (t *audioTrack) Discard() {
	t.f.Close()
	os.Remove(t.path)
}
