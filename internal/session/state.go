// Package session holds the live simulator state and drives the tick loop
// that turns it into frames.
package session

import (
	"fmt"
	"sync"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

const (
	phaseModulus = waveform.Length
	stepModulus  = 1_000_000
)

// Snapshot is a copy of the state at one instant.
type Snapshot struct {
	Settings   waveform.Settings    `json:"settings"`
	Patient    physiology.Patient   `json:"patient"`
	Pathology  physiology.Pathology `json:"pathology"`
	EtCO2Max   float64              `json:"etco2Max"`
	Running    bool                 `json:"running"`
	Phase      int                  `json:"phase"`
	BreathStep int                  `json:"breathStep"`
	ScenarioID string               `json:"scenarioId,omitempty"`
}

// Request is the generator call for the snapshot's current instant.
func (s Snapshot) Request() waveform.Request {
	return waveform.Request{
		Settings:   s.Settings,
		Patient:    s.Patient,
		Pathology:  s.Pathology,
		Phase:      s.Phase,
		BreathStep: s.BreathStep,
		EtCO2Max:   s.EtCO2Max,
	}
}

// State is safe for concurrent use.
type State struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewState(etco2 float64) *State {
	if etco2 <= 0 {
		etco2 = waveform.DefaultEtCO2
	}
	return &State{snap: Snapshot{
		Settings:  waveform.DefaultSettings(),
		Patient:   physiology.DefaultPatient(),
		Pathology: physiology.Normal,
		EtCO2Max:  etco2,
		Running:   true,
	}}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Tick advances phase and step unless paused and returns the new snapshot.
func (s *State) Tick() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Running {
		s.snap.Phase = (s.snap.Phase + 1) % phaseModulus
		s.snap.BreathStep = (s.snap.BreathStep + 1) % stepModulus
	}
	return s.snap
}

func (s *State) SetRunning(running bool) {
	s.mu.Lock()
	s.snap.Running = running
	s.mu.Unlock()
}

func (s *State) SetSettings(st waveform.Settings) {
	s.mu.Lock()
	s.snap.Settings = st
	s.mu.Unlock()
}

func (s *State) SetPatient(p physiology.Patient) {
	s.mu.Lock()
	s.snap.Patient = p
	s.mu.Unlock()
}

// SetPathology switches the lung condition and restarts the breath counter.
func (s *State) SetPathology(p physiology.Pathology) error {
	if !p.Known() {
		return fmt.Errorf("unknown pathology %q", p)
	}
	s.mu.Lock()
	s.snap.Pathology = p
	s.snap.BreathStep = 0
	s.mu.Unlock()
	return nil
}

func (s *State) SetEtCO2(v float64) {
	if v <= 0 {
		v = waveform.DefaultEtCO2
	}
	s.mu.Lock()
	s.snap.EtCO2Max = v
	s.mu.Unlock()
}

// ApplyClass moves the patient to a new age class: average weight and age
// for the class, its recommended rate, and PEEP/PIP clamped into range.
func (s *State) ApplyClass(c physiology.Class) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.snap.Patient.ForClass(c)
	ranges := physiology.RangesFor(p.Class, p.WeightKg)
	s.snap.Patient = p
	s.snap.Settings.RespiratoryRate = physiology.CategoryFor(p.Class).RecommendedRR
	s.snap.Settings.PEEP = ranges.PEEP.Clamp(s.snap.Settings.PEEP)
	s.snap.Settings.PIP = ranges.PIP.Clamp(s.snap.Settings.PIP)
}

// LoadScenario applies a scenario's settings, pathology and patient fields
// and rewinds the cycle.
func (s *State) LoadScenario(sc scenario.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Settings = sc.Settings
	s.snap.Pathology = sc.Pathology
	s.snap.Patient = sc.ApplyPatient(s.snap.Patient)
	s.snap.ScenarioID = sc.ID
	s.snap.Phase = 0
	s.snap.BreathStep = 0
}
