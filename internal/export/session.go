// Package export writes session snapshots for learners to keep.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/progress"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

const disclaimerNotice = "This data is from an educational simulator and should not be used for clinical decisions"

type Parameters struct {
	waveform.Settings
	Pathology physiology.Pathology `json:"condition"`
	EtCO2Max  float64              `json:"etco2Max"`
}

type Annotation struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

type Disclaimer struct {
	Notice             string    `json:"notice"`
	Timestamp          time.Time `json:"timestamp"`
	EducationalUseOnly bool      `json:"educational_use_only"`
}

// Session is the JSON document a learner downloads.
type Session struct {
	ID          uuid.UUID            `json:"id"`
	Parameters  Parameters           `json:"parameters"`
	Patient     physiology.Patient   `json:"patient"`
	Metrics     waveform.Metrics     `json:"metrics"`
	Thresholds  analysis.Limits      `json:"thresholds"`
	Quiz        *scenario.Quiz       `json:"quiz"`
	Assessment  *scenario.Assessment `json:"assessment"`
	Alarms      []analysis.Alarm     `json:"alarms"`
	Annotations []Annotation         `json:"annotations"`
	Progress    progress.Progress    `json:"progress"`
	Disclaimer  Disclaimer           `json:"disclaimer"`
	Timestamp   time.Time            `json:"timestamp"`
}

// Input gathers what a session export is built from.
type Input struct {
	Request     waveform.Request
	Limits      analysis.Limits
	Scenario    *scenario.Scenario
	Alarms      []analysis.Alarm
	Annotations []Annotation
	Progress    progress.Progress
}

// NewSession stamps a snapshot with a fresh id and the given time.
func NewSession(in Input, now time.Time) Session {
	s := Session{
		ID: uuid.New(),
		Parameters: Parameters{
			Settings:  in.Request.Settings,
			Pathology: in.Request.Pathology,
			EtCO2Max:  in.Request.EtCO2Max,
		},
		Patient:     in.Request.Patient,
		Metrics:     waveform.ComputeMetrics(in.Request),
		Thresholds:  in.Limits,
		Alarms:      in.Alarms,
		Annotations: in.Annotations,
		Progress:    in.Progress,
		Disclaimer: Disclaimer{
			Notice:             disclaimerNotice,
			Timestamp:          now.UTC(),
			EducationalUseOnly: true,
		},
		Timestamp: now.UTC(),
	}
	if in.Scenario != nil {
		s.Quiz = in.Scenario.Quiz
		s.Assessment = in.Scenario.Assessment
	}
	if s.Alarms == nil {
		s.Alarms = []analysis.Alarm{}
	}
	if s.Annotations == nil {
		s.Annotations = []Annotation{}
	}
	return s
}

// FileName is the download name, dated by the session timestamp.
func (s Session) FileName() string {
	return fmt.Sprintf("lungiq-session-%s.json", s.Timestamp.Format("2006-01-02"))
}

// WriteJSON writes s indented by two spaces.
func WriteJSON(w io.Writer, s Session) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return nil
}
