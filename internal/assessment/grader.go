// Package assessment grades scenario quizzes and ventilator-setting
// assessments and records passing scenarios as completed.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/progress"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// TidalVolumeTolerance is how far from the target the set tidal volume may
// be, in mL.
const TidalVolumeTolerance = 10.0

var (
	ErrNoQuiz       = errors.New("scenario has no quiz")
	ErrNoAssessment = errors.New("scenario has no assessment")
)

// Completer records a scenario as done for a learner.
type Completer interface {
	Complete(ctx context.Context, learner, scenarioID string) (progress.Progress, error)
}

type QuizResult struct {
	ScenarioID string `json:"scenarioId"`
	Answer     string `json:"answer"`
	Correct    bool   `json:"correct"`
	Hint       string `json:"hint,omitempty"`
	Reference  string `json:"reference,omitempty"`
}

type Result struct {
	ScenarioID          string  `json:"scenarioId"`
	TidalVolume         float64 `json:"tidalVolume"`
	TargetTV            float64 `json:"targetTV"`
	Plateau             float64 `json:"plateau"`
	TargetPlateauMax    float64 `json:"targetPlateauMax"`
	TidalVolumeOnTarget bool    `json:"tidalVolumeOnTarget"`
	PlateauWithinLimit  bool    `json:"plateauWithinLimit"`
	Passed              bool    `json:"passed"`
	Hint                string  `json:"hint,omitempty"`
}

// Score counts quiz answers over a session.
type Score struct {
	Correct  int `json:"correct"`
	Attempts int `json:"attempts"`
}

// Grader checks answers against the catalogue.
type Grader struct {
	catalog   *scenario.Catalog
	completer Completer
	log       *zap.Logger

	mu     sync.Mutex
	scores map[string]Score
}

func NewGrader(catalog *scenario.Catalog, completer Completer, log *zap.Logger) *Grader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Grader{
		catalog:   catalog,
		completer: completer,
		log:       log,
		scores:    make(map[string]Score),
	}
}

// GradeAnswer compares answer with the correct choice, ignoring case and
// surrounding space.
func GradeAnswer(q scenario.Quiz, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
}

// AnswerQuiz grades a quiz answer and completes the scenario when it is
// right.
func (g *Grader) AnswerQuiz(ctx context.Context, learner, scenarioID, answer string) (QuizResult, error) {
	s, err := g.catalog.Scenario(scenarioID)
	if err != nil {
		return QuizResult{}, err
	}
	if s.Quiz == nil {
		return QuizResult{}, fmt.Errorf("%w: %s", ErrNoQuiz, scenarioID)
	}

	res := QuizResult{
		ScenarioID: scenarioID,
		Answer:     answer,
		Correct:    GradeAnswer(*s.Quiz, answer),
		Hint:       s.Quiz.Hint,
		Reference:  s.Quiz.Reference,
	}

	g.mu.Lock()
	sc := g.scores[learner]
	sc.Attempts++
	if res.Correct {
		sc.Correct++
	}
	g.scores[learner] = sc
	g.mu.Unlock()

	g.log.Debug("quiz answered",
		zap.String("learner", learner),
		zap.String("scenario", scenarioID),
		zap.Bool("correct", res.Correct),
	)
	if res.Correct {
		if err := g.complete(ctx, learner, scenarioID); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Evaluate checks settings against an assessment without recording
// anything.
func Evaluate(a scenario.Assessment, metrics waveform.Metrics) Result {
	onTarget := math.Abs(metrics.TidalVolume-a.TargetTV) <= TidalVolumeTolerance
	withinLimit := metrics.Plateau <= a.TargetPlateauMax
	return Result{
		TidalVolume:         metrics.TidalVolume,
		TargetTV:            a.TargetTV,
		Plateau:             metrics.Plateau,
		TargetPlateauMax:    a.TargetPlateauMax,
		TidalVolumeOnTarget: onTarget,
		PlateauWithinLimit:  withinLimit,
		Passed:              onTarget && withinLimit,
		Hint:                a.Hint,
	}
}

// Assess evaluates the learner's settings on the scenario's patient and
// pathology and completes the scenario on a pass.
func (g *Grader) Assess(ctx context.Context, learner, scenarioID string, settings waveform.Settings, patient physiology.Patient) (Result, error) {
	s, err := g.catalog.Scenario(scenarioID)
	if err != nil {
		return Result{}, err
	}
	if s.Assessment == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrNoAssessment, scenarioID)
	}

	m := waveform.ComputeMetrics(waveform.Request{
		Settings:  settings,
		Patient:   patient,
		Pathology: s.Pathology,
	})
	res := Evaluate(*s.Assessment, m)
	res.ScenarioID = scenarioID

	if res.Passed {
		if err := g.complete(ctx, learner, scenarioID); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (g *Grader) Score(learner string) Score {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scores[learner]
}

func (g *Grader) ResetScore(learner string) {
	g.mu.Lock()
	delete(g.scores, learner)
	g.mu.Unlock()
}

func (g *Grader) complete(ctx context.Context, learner, scenarioID string) error {
	if g.completer == nil {
		return nil
	}
	if _, err := g.completer.Complete(ctx, learner, scenarioID); err != nil {
		return fmt.Errorf("record completion of %s: %w", scenarioID, err)
	}
	return nil
}
