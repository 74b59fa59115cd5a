package report

import (
	"time"

	"interview-emotion-engine/internal/interval"
	"interview-emotion-engine/internal/models"
)

// Frame is what the playback view shows at one instant: the emission
// valid for each modality, or nothing where the stream had decayed.
type Frame struct {
	At     time.Duration       `json:"at"`
	Video  *models.Emission    `json:"video,omitempty"`
	Audio  *models.Emission    `json:"audio,omitempty"`
	Text   string              `json:"text,omitempty"`
	Traits *models.TraitScores `json:"traits,omitempty"`
}

// Playback answers point-in-time queries over a finished report. The
// interval trees are built once per report and shared by every scrub
// query against it.
type Playback struct {
	record models.ReportRecord
	video  interval.Tree[models.Emission]
	audio  interval.Tree[models.Emission]
	text   interval.Tree[string]
	traits *models.TraitScores
}

// NewPlayback reconstructs the timeline of a report. Zero-valued
// options fall back to the interval defaults.
func NewPlayback(rec models.ReportRecord, preds models.ReportPredictions, opts interval.Options) *Playback {
	end := rec.Duration()
	return &Playback{
		record: rec,
		video:  interval.Build(preds.Video, end, opts),
		audio:  interval.Build(preds.Audio, end, opts),
		text:   interval.BuildHold(preds.Text, end),
		traits: preds.Traits,
	}
}

// Record returns the report record this playback was built from.
func (p *Playback) Record() models.ReportRecord {
	return p.record
}

// Duration returns the length of the recorded session.
func (p *Playback) Duration() time.Duration {
	return p.record.Duration()
}

// FrameAt returns the frame valid at the given elapsed time. Modalities
// without data at that instant are left empty.
func (p *Playback) FrameAt(at time.Duration) Frame {
	f := Frame{At: at, Traits: p.traits}
	if em, ok := p.video.At(at); ok {
		f.Video = &em
	}
	if em, ok := p.audio.At(at); ok {
		f.Audio = &em
	}
	if text, ok := p.text.At(at); ok {
		f.Text = text
	}
	return f
}
