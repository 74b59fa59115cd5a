// Package report turns finished sessions into persisted reports and
// serves gap-aware playback over them.
package report

import (
	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/session"
)

// Assemble splits a session snapshot into the searchable record and the
// opaque prediction payload. The record's PredictionsRef is filled in
// by the store once the blob is written.
func Assemble(snap session.Snapshot) (models.ReportRecord, models.ReportPredictions) {
	rec := models.ReportRecord{
		ID:              snap.ID,
		IntervieweeName: snap.IntervieweeName,
		InterviewerName: snap.InterviewerName,
		StartTime:       snap.StartTime,
		EndTime:         snap.EndTime,
	}
	preds := models.ReportPredictions{
		Video:     snap.Video,
		Audio:     snap.Audio,
		Text:      snap.Text,
		Traits:    snap.Traits,
		AudioPath: snap.AudioPath,
	}
	return rec, preds
}
