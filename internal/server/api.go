package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Nicholas-Amsler/lung-iq/internal/export"
	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/progress"
	"github.com/Nicholas-Amsler/lung-iq/internal/session"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

type pathView struct {
	Key         string   `json:"key"`
	Level       string   `json:"level"`
	Description string   `json:"description"`
	Scenarios   []string `json:"scenarios"`
	Unlocked    *bool    `json:"unlocked,omitempty"`
}

// listPaths returns the catalogue outline. With ?learner= each path also
// reports whether that learner has unlocked it.
func (s *Server) listPaths(w http.ResponseWriter, r *http.Request) {
	learner := r.URL.Query().Get("learner")
	var out []pathView
	for _, p := range s.Catalog.Paths() {
		v := pathView{Key: p.Key, Level: p.Level, Description: p.Description, Scenarios: p.IDs()}
		if learner != "" && s.Tracker != nil {
			ok, err := s.Tracker.PathUnlocked(r.Context(), learner, p.Key)
			if err != nil {
				s.fail(w, err)
				return
			}
			v.Unlocked = &ok
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.Catalog.Scenario(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) publish(cmd session.Command) error {
	if s.Control == nil {
		return errors.New("no control channel")
	}
	return s.Control.PublishCommand(cmd)
}

func (s *Server) loadScenario(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sc, err := s.Catalog.Scenario(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.publish(session.Command{Op: session.OpScenario, ScenarioID: id}); err != nil {
		s.fail(w, fmt.Errorf("load scenario %s: %w", id, err))
		return
	}
	s.Alarms.Clear()
	writeJSON(w, http.StatusAccepted, sc)
}

func (s *Server) control(w http.ResponseWriter, r *http.Request) {
	var cmd session.Command
	if err := decode(r, &cmd); err != nil {
		s.fail(w, err)
		return
	}
	if cmd.Op == "" {
		s.fail(w, fmt.Errorf("%w: op is required", errBadRequest))
		return
	}
	if err := s.publish(cmd); err != nil {
		s.fail(w, fmt.Errorf("publish %s: %w", cmd.Op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, cmd)
}

// frame computes one frame for an explicit request.
func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	req := waveform.Request{
		Settings:  waveform.DefaultSettings(),
		Patient:   physiology.DefaultPatient(),
		Pathology: physiology.Normal,
		EtCO2Max:  waveform.DefaultEtCO2,
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Generator.Frame(req))
}

func (s *Server) ibw(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	height, err := strconv.ParseFloat(q.Get("height"), 64)
	if err != nil || height <= 0 {
		s.fail(w, fmt.Errorf("%w: height must be a positive number of cm", errBadRequest))
		return
	}
	g := physiology.Gender(q.Get("gender"))
	if g == "" {
		g = physiology.Male
	}
	ibw := physiology.IdealBodyWeight(height, g)
	p := physiology.Patient{Class: physiology.Adult, HeightCm: height, Gender: g}
	writeJSON(w, http.StatusOK, map[string]any{
		"heightCm":        height,
		"gender":          g,
		"idealBodyWeight": ibw,
		"bounds":          physiology.TidalVolumeBounds(p),
		"targetTV":        physiology.TargetTidalVolume(p),
	})
}

func (s *Server) bounds(w http.ResponseWriter, r *http.Request) {
	p := physiology.DefaultPatient()
	if err := decode(r, &p); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patient":         p,
		"referenceWeight": physiology.ReferenceWeight(p),
		"bounds":          physiology.TidalVolumeBounds(p),
		"targetTV":        physiology.TargetTidalVolume(p),
		"ranges":          physiology.RangesFor(p.Class, p.WeightKg),
	})
}

func (s *Server) listAlarms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Alarms.Entries())
}

func (s *Server) clearAlarms(w http.ResponseWriter, _ *http.Request) {
	s.Alarms.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) newLearner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"learner": uuid.NewString()})
}

func (s *Server) tracker(w http.ResponseWriter) (*progress.Tracker, bool) {
	if s.Tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "progress store not configured")
		return nil, false
	}
	return s.Tracker, true
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tracker(w)
	if !ok {
		return
	}
	p, err := t.Load(r.Context(), mux.Vars(r)["learner"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) resetProgress(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tracker(w)
	if !ok {
		return
	}
	learner := mux.Vars(r)["learner"]
	if err := t.Reset(r.Context(), learner); err != nil {
		s.fail(w, err)
		return
	}
	if s.Grader != nil {
		s.Grader.ResetScore(learner)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setLevel(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tracker(w)
	if !ok {
		return
	}
	var body struct {
		Level string `json:"level"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	learner := mux.Vars(r)["learner"]
	unlocked, err := t.PathUnlocked(r.Context(), learner, body.Level)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !unlocked {
		writeError(w, http.StatusForbidden, fmt.Sprintf("path %q is locked", body.Level))
		return
	}
	p, err := t.SetLevel(r.Context(), learner, body.Level)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) unlockAll(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tracker(w)
	if !ok {
		return
	}
	p, err := t.UnlockAll(r.Context(), mux.Vars(r)["learner"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) acceptDisclaimer(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tracker(w)
	if !ok {
		return
	}
	if err := t.AcceptDisclaimer(r.Context(), mux.Vars(r)["learner"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) answerQuiz(w http.ResponseWriter, r *http.Request) {
	if s.Grader == nil {
		writeError(w, http.StatusServiceUnavailable, "grading not configured")
		return
	}
	var body struct {
		Answer string `json:"answer"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	vars := mux.Vars(r)
	res, err := s.Grader.AnswerQuiz(r.Context(), vars["learner"], vars["id"], body.Answer)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": res,
		"score":  s.Grader.Score(vars["learner"]),
	})
}

func (s *Server) assess(w http.ResponseWriter, r *http.Request) {
	if s.Grader == nil {
		writeError(w, http.StatusServiceUnavailable, "grading not configured")
		return
	}
	vars := mux.Vars(r)
	sc, err := s.Catalog.Scenario(vars["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	body := struct {
		Settings waveform.Settings  `json:"settings"`
		Patient  physiology.Patient `json:"patient"`
	}{
		Settings: sc.Settings,
		Patient:  sc.ApplyPatient(physiology.DefaultPatient()),
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	res, err := s.Grader.Assess(r.Context(), vars["learner"], vars["id"], body.Settings, body.Patient)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type exportRequest struct {
	Request     waveform.Request    `json:"request"`
	ScenarioID  string              `json:"scenarioId"`
	Learner     string              `json:"learner"`
	Annotations []export.Annotation `json:"annotations"`
}

func (s *Server) readExport(r *http.Request) (export.Input, error) {
	req := exportRequest{Request: waveform.Request{
		Settings:  waveform.DefaultSettings(),
		Patient:   physiology.DefaultPatient(),
		Pathology: physiology.Normal,
		EtCO2Max:  waveform.DefaultEtCO2,
	}}
	if err := decode(r, &req); err != nil {
		return export.Input{}, err
	}
	in := export.Input{
		Request:     req.Request,
		Limits:      s.Limits,
		Alarms:      s.Alarms.Entries(),
		Annotations: req.Annotations,
	}
	if req.ScenarioID != "" {
		sc, err := s.Catalog.Scenario(req.ScenarioID)
		if err != nil {
			return in, err
		}
		in.Scenario = &sc
	}
	if s.Tracker != nil {
		p, err := s.Tracker.Load(r.Context(), req.Learner)
		if err != nil {
			return in, err
		}
		in.Progress = p
	}
	return in, nil
}

func (s *Server) exportJSON(w http.ResponseWriter, r *http.Request) {
	in, err := s.readExport(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	sess := export.NewSession(in, time.Now())
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, sess); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.FileName()))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	in, err := s.readExport(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, in.Request, s.Generator.Frame(in.Request)); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
		fmt.Sprintf("lungiq-cycle-%s.xlsx", time.Now().UTC().Format("2006-01-02"))))
	_, _ = w.Write(buf.Bytes())
}
