package session

import (
	"fmt"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// Op names a control command.
type Op string

const (
	OpSettings  Op = "settings"
	OpPatient   Op = "patient"
	OpClass     Op = "class"
	OpPathology Op = "pathology"
	OpScenario  Op = "scenario"
	OpEtCO2     Op = "etco2"
	OpPause     Op = "pause"
	OpResume    Op = "resume"
)

// Command is the JSON message carried on the control subject.
type Command struct {
	Op         Op                   `json:"op"`
	Settings   *waveform.Settings   `json:"settings,omitempty"`
	Patient    *physiology.Patient  `json:"patient,omitempty"`
	Class      physiology.Class     `json:"class,omitempty"`
	Pathology  physiology.Pathology `json:"pathology,omitempty"`
	ScenarioID string               `json:"scenarioId,omitempty"`
	EtCO2      float64              `json:"etco2,omitempty"`
}

// Apply executes cmd against s. Scenario ids resolve through catalog.
// The returned flag reports whether listeners should reset alarm state.
func (s *State) Apply(cmd Command, catalog *scenario.Catalog) (reset bool, err error) {
	switch cmd.Op {
	case OpSettings:
		if cmd.Settings == nil {
			return false, fmt.Errorf("%s: missing settings", cmd.Op)
		}
		s.SetSettings(*cmd.Settings)
	case OpPatient:
		if cmd.Patient == nil {
			return false, fmt.Errorf("%s: missing patient", cmd.Op)
		}
		s.SetPatient(*cmd.Patient)
	case OpClass:
		if cmd.Class == "" {
			return false, fmt.Errorf("%s: missing class", cmd.Op)
		}
		s.ApplyClass(cmd.Class)
	case OpPathology:
		if err := s.SetPathology(cmd.Pathology); err != nil {
			return false, err
		}
	case OpScenario:
		if catalog == nil {
			return false, fmt.Errorf("%s: no catalog", cmd.Op)
		}
		sc, err := catalog.Scenario(cmd.ScenarioID)
		if err != nil {
			return false, err
		}
		s.LoadScenario(sc)
		return true, nil
	case OpEtCO2:
		s.SetEtCO2(cmd.EtCO2)
	case OpPause:
		s.SetRunning(false)
	case OpResume:
		s.SetRunning(true)
	default:
		return false, fmt.Errorf("unknown command %q", cmd.Op)
	}
	return false, nil
}
