package models

const (
	EventTypeEmission  = "session.emission"
	EventTypeUtterance = "session.utterance"
)

// EmissionEvent is published when a video or audio window closes with a
// winning label.
type EmissionEvent struct {
	EventType   string `json:"eventType"`
	SessionID   string `json:"sessionId"`
	Modality    string `json:"modality"`
	TimestampMs int64  `json:"timestampMs"`
	Label       string `json:"label"`
}

// UtteranceEvent is published when a completed utterance arrives from
// the transcription provider.
type UtteranceEvent struct {
	EventType   string  `json:"eventType"`
	SessionID   string  `json:"sessionId"`
	TimestampMs int64   `json:"timestampMs"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
}
