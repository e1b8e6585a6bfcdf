package scenario

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

func TestDefaultCatalog_Paths(t *testing.T) {
	c := Default()

	var keys []string
	for _, p := range c.Paths() {
		keys = append(keys, p.Key)
	}
	want := []string{
		"beginner", "intermediate", "advanced", "expert",
		"pediatric-basic", "neonatal", "pediatric-advanced", "neonatal-advanced",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("path keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "beginner", c.FirstKey())
	assert.Len(t, c.AllScenarioIDs(), 35)
}

func TestDefaultCatalog_Scenario(t *testing.T) {
	c := Default()
	s, err := c.Scenario("ards-recognition")
	require.NoError(t, err)

	assert.Equal(t, physiology.ARDS, s.Pathology)
	assert.Equal(t, waveform.Settings{PEEP: 8, PIP: 28, RespiratoryRate: 16, IERatio: 1, RiseTime: 0.3, Mode: waveform.ModeVolume}, s.Settings)
	require.NotNil(t, s.Patient)
	assert.Equal(t, 172.0, s.Patient.HeightCm)
	assert.Equal(t, physiology.Male, s.Patient.Gender)
	require.NotNil(t, s.Assessment)
	assert.Equal(t, 406.0, s.Assessment.TargetTV)

	key, err := c.PathOf("ards-recognition")
	require.NoError(t, err)
	assert.Equal(t, "intermediate", key)
}

func TestDefaultCatalog_QuizAnswersAreChoices(t *testing.T) {
	for _, p := range Default().Paths() {
		for _, s := range p.Scenarios {
			if s.Quiz == nil || len(s.Quiz.Choices) == 0 {
				continue
			}
			assert.Contains(t, s.Quiz.Choices, s.Quiz.CorrectAnswer, s.ID)
		}
	}
}

func TestDefaultCatalog_AdultTargetsMatchIBW(t *testing.T) {
	for _, p := range Default().Paths() {
		for _, s := range p.Scenarios {
			if s.Assessment == nil || s.Patient == nil || s.Patient.Class.Pediatric() {
				continue
			}
			want := physiology.TargetTidalVolume(*s.Patient)
			assert.InDelta(t, want, s.Assessment.TargetTV, 10, s.ID)
		}
	}
}

func TestCatalog_Unknown(t *testing.T) {
	c := Default()
	_, err := c.Scenario("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)
	_, err = c.Path("nope")
	assert.ErrorIs(t, err, ErrUnknownPath)
	_, err = c.PathOf("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestCatalog_Previous(t *testing.T) {
	c := Default()
	_, ok := c.Previous("beginner")
	assert.False(t, ok)
	prev, ok := c.Previous("intermediate")
	require.True(t, ok)
	assert.Equal(t, "beginner", prev.Key)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":             `paths: []`,
		"duplicate path":    "paths:\n- key: a\n- key: a\n",
		"duplicate id":      "paths:\n- key: a\n  scenarios:\n  - {id: x, pathology: normal}\n  - {id: x, pathology: normal}\n",
		"unknown pathology": "paths:\n- key: a\n  scenarios:\n  - {id: x, pathology: fibrosis}\n",
		"missing id":        "paths:\n- key: a\n  scenarios:\n  - {pathology: normal}\n",
		"not yaml":          "paths: [",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestApplyPatient(t *testing.T) {
	base := physiology.DefaultPatient()
	s := Scenario{Patient: &physiology.Patient{Class: physiology.Toddler, WeightKg: 12}}
	got := s.ApplyPatient(base)

	assert.Equal(t, physiology.Toddler, got.Class)
	assert.Equal(t, 12.0, got.WeightKg)
	assert.Equal(t, base.AgeYears, got.AgeYears)
	assert.Equal(t, base.Gender, got.Gender)

	assert.Equal(t, base, Scenario{}.ApplyPatient(base))
}
