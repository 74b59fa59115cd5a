package models

import "time"

// Modality names used in logs, metrics and events.
const (
	ModalityVideo = "video"
	ModalityAudio = "audio"
	ModalityText  = "text"
)

// FaceBox is the bounding box of a detected face inside a video frame.
type FaceBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// RawSample is a single instant's capture unit: one video frame or one
// fixed-length audio chunk. Face is set only for video frames with a
// detected face.
type RawSample struct {
	Data []byte   `json:"data,omitempty"`
	Face *FaceBox `json:"face,omitempty"`
}

// Emission is one finalized, timestamped classification result for a
// modality window. Timestamp is elapsed time since session start.
// Sample is the representative raw sample chosen for the window: among
// the samples whose own per-sample label equals the winning label, the
// one with the highest confidence for that label.
type Emission struct {
	Timestamp time.Duration `json:"timestamp"`
	Sample    RawSample     `json:"sample"`
	Label     Emotion       `json:"label"`
}

// EmissionMap keys emissions by their elapsed-session timestamp. At
// most one emission exists per modality per distinct timestamp.
type EmissionMap map[time.Duration]Emission

// TextMap keys completed utterances by the elapsed-session time they
// arrived at. Text carries no per-utterance label; trait classification
// happens once at session end over the concatenation.
type TextMap map[time.Duration]string
