package models

import "time"

// ReportRecord holds only the scalar, searchable fields of a finished
// interview, for listing. The full prediction payload lives in a
// separate blob referenced by PredictionsRef.
type ReportRecord struct {
	ID              string    `json:"id"`
	PredictionsRef  string    `json:"predictionsRef"`
	IntervieweeName string    `json:"intervieweeName"`
	InterviewerName string    `json:"interviewerName"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
}

// Duration is always recomputed from the interval bounds, never stored
// alongside them where it could drift out of sync.
func (r ReportRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// ReportPredictions is the full playback payload for one session. It is
// serialized as an opaque blob; only the shape must survive a round
// trip.
type ReportPredictions struct {
	Video     EmissionMap  `json:"video"`
	Audio     EmissionMap  `json:"audio"`
	Text      TextMap      `json:"text"`
	Traits    *TraitScores `json:"traits,omitempty"`
	AudioPath string       `json:"audioPath,omitempty"`
}
