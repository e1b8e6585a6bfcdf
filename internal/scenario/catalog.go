package scenario

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrUnknownPath     = errors.New("unknown learning path")
)

//go:embed catalog.yaml
var catalogYAML []byte

// Quiz is a multiple-choice question attached to a scenario.
type Quiz struct {
	Question      string   `json:"question" yaml:"question"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
	Choices       []string `json:"choices,omitempty" yaml:"choices"`
	Hint          string   `json:"hint,omitempty" yaml:"hint"`
	Reference     string   `json:"reference,omitempty" yaml:"reference"`
}

// Assessment asks the learner to reach a tidal volume without exceeding a
// plateau pressure.
type Assessment struct {
	TargetTV         float64 `json:"targetTV" yaml:"target_tv"`
	TargetPlateauMax float64 `json:"targetPlateauMax" yaml:"target_plateau_max"`
	Hint             string  `json:"hint,omitempty" yaml:"hint"`
}

type Scenario struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description"`
	Pathology   physiology.Pathology `json:"pathology" yaml:"pathology"`
	Patient     *physiology.Patient  `json:"patient,omitempty" yaml:"patient"`
	Settings    waveform.Settings    `json:"settings" yaml:"settings"`
	Objectives  []string             `json:"objectives,omitempty" yaml:"objectives"`
	Quiz        *Quiz                `json:"quiz,omitempty" yaml:"quiz"`
	Assessment  *Assessment          `json:"assessment,omitempty" yaml:"assessment"`
}

// ApplyPatient overlays the scenario's demographics on p. Fields the
// scenario leaves empty keep their current value.
func (s Scenario) ApplyPatient(p physiology.Patient) physiology.Patient {
	if s.Patient == nil {
		return p
	}
	if s.Patient.Class != "" {
		p.Class = s.Patient.Class
	}
	if s.Patient.WeightKg > 0 {
		p.WeightKg = s.Patient.WeightKg
	}
	if s.Patient.AgeYears > 0 {
		p.AgeYears = s.Patient.AgeYears
	}
	if s.Patient.HeightCm > 0 {
		p.HeightCm = s.Patient.HeightCm
	}
	if s.Patient.Gender != "" {
		p.Gender = s.Patient.Gender
	}
	return p
}

// Path is an ordered group of scenarios unlocked together.
type Path struct {
	Key         string     `json:"key" yaml:"key"`
	Level       string     `json:"level" yaml:"level"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios" yaml:"scenarios"`
}

// IDs returns the scenario ids of the path in order.
func (p Path) IDs() []string {
	ids := make([]string, len(p.Scenarios))
	for i, s := range p.Scenarios {
		ids[i] = s.ID
	}
	return ids
}

// Catalog is the read-only set of learning paths.
type Catalog struct {
	paths  []Path
	byPath map[string]int
	byID   map[string][2]int
}

type catalogFile struct {
	Paths []Path `yaml:"paths"`
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Paths) == 0 {
		return nil, errors.New("catalog has no learning paths")
	}

	c := &Catalog{
		paths:  f.Paths,
		byPath: make(map[string]int, len(f.Paths)),
		byID:   make(map[string][2]int),
	}
	for pi, p := range f.Paths {
		if p.Key == "" {
			return nil, fmt.Errorf("path %d has no key", pi)
		}
		if _, dup := c.byPath[p.Key]; dup {
			return nil, fmt.Errorf("duplicate path key %q", p.Key)
		}
		c.byPath[p.Key] = pi
		for si, s := range p.Scenarios {
			if s.ID == "" {
				return nil, fmt.Errorf("path %q: scenario %d has no id", p.Key, si)
			}
			if _, dup := c.byID[s.ID]; dup {
				return nil, fmt.Errorf("duplicate scenario id %q", s.ID)
			}
			if !s.Pathology.Known() {
				return nil, fmt.Errorf("scenario %q: unknown pathology %q", s.ID, s.Pathology)
			}
			c.byID[s.ID] = [2]int{pi, si}
		}
	}
	return c, nil
}

// Default returns the catalogue compiled into the binary.
func Default() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

func (c *Catalog) Paths() []Path { return c.paths }

func (c *Catalog) Path(key string) (Path, error) {
	i, ok := c.byPath[key]
	if !ok {
		return Path{}, fmt.Errorf("%w: %q", ErrUnknownPath, key)
	}
	return c.paths[i], nil
}

// Previous returns the path before key, if any.
func (c *Catalog) Previous(key string) (Path, bool) {
	i, ok := c.byPath[key]
	if !ok || i == 0 {
		return Path{}, false
	}
	return c.paths[i-1], true
}

// FirstKey is the key of the entry path.
func (c *Catalog) FirstKey() string { return c.paths[0].Key }

func (c *Catalog) Scenario(id string) (Scenario, error) {
	loc, ok := c.byID[id]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return c.paths[loc[0]].Scenarios[loc[1]], nil
}

// PathOf returns the key of the path holding scenario id.
func (c *Catalog) PathOf(id string) (string, error) {
	loc, ok := c.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return c.paths[loc[0]].Key, nil
}

// AllScenarioIDs lists every scenario in catalogue order.
func (c *Catalog) AllScenarioIDs() []string {
	var ids []string
	for _, p := range c.paths {
		ids = append(ids, p.IDs()...)
	}
	return ids
}
