// Package server exposes the simulator to browsers: the websocket feed,
// the scenario catalogue, learner progress, grading and exports.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/assessment"
	"github.com/Nicholas-Amsler/lung-iq/internal/progress"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/session"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// CommandPublisher forwards control commands to the producer.
type CommandPublisher interface {
	PublishCommand(cmd session.Command) error
}

type Deps struct {
	Catalog   *scenario.Catalog
	Tracker   *progress.Tracker
	Grader    *assessment.Grader
	Generator *waveform.Generator
	Control   CommandPublisher
	Alarms    *analysis.Log
	Limits    analysis.Limits
	Hub       *Hub
	WebDir    string
	Log       *zap.Logger
}

type Server struct {
	Deps
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Hub == nil {
		d.Hub = NewHub(d.Log)
	}
	if d.Alarms == nil {
		d.Alarms = analysis.NewLog(0)
	}
	if d.Generator == nil {
		d.Generator = waveform.NewGenerator(waveform.DefaultCacheSize)
	}
	return &Server{Deps: d}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.metrics).Methods(http.MethodGet)
	r.Handle("/ws", s.Hub)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/paths", s.listPaths).Methods(http.MethodGet)
	api.HandleFunc("/scenarios/{id}", s.getScenario).Methods(http.MethodGet)
	api.HandleFunc("/scenarios/{id}/load", s.loadScenario).Methods(http.MethodPost)
	api.HandleFunc("/control", s.control).Methods(http.MethodPost)
	api.HandleFunc("/waveform", s.frame).Methods(http.MethodPost)
	api.HandleFunc("/ibw", s.ibw).Methods(http.MethodGet)
	api.HandleFunc("/bounds", s.bounds).Methods(http.MethodPost)
	api.HandleFunc("/alarms", s.listAlarms).Methods(http.MethodGet)
	api.HandleFunc("/alarms", s.clearAlarms).Methods(http.MethodDelete)
	api.HandleFunc("/export", s.exportJSON).Methods(http.MethodPost)
	api.HandleFunc("/export.xlsx", s.exportWorkbook).Methods(http.MethodPost)

	api.HandleFunc("/learners", s.newLearner).Methods(http.MethodPost)
	l := api.PathPrefix("/learners/{learner}").Subrouter()
	l.HandleFunc("/progress", s.getProgress).Methods(http.MethodGet)
	l.HandleFunc("/progress", s.resetProgress).Methods(http.MethodDelete)
	l.HandleFunc("/level", s.setLevel).Methods(http.MethodPut)
	l.HandleFunc("/unlock", s.unlockAll).Methods(http.MethodPost)
	l.HandleFunc("/disclaimer", s.acceptDisclaimer).Methods(http.MethodPost)
	l.HandleFunc("/quiz/{id}", s.answerQuiz).Methods(http.MethodPost)
	l.HandleFunc("/assessment/{id}", s.assess).Methods(http.MethodPost)

	if s.WebDir != "" {
		if _, err := os.Stat(s.WebDir); err == nil {
			r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.WebDir)))
		} else {
			s.Log.Warn("static directory unavailable", zap.String("dir", s.WebDir), zap.Error(err))
		}
	}
	return r
}

// Handler is the router wrapped with panic recovery, CORS and access logs.
func (s *Server) Handler() http.Handler {
	access := zap.NewStdLog(s.Log.Named("access")).Writer()
	h := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.Log.Named("panic"))),
		handlers.PrintRecoveryStack(true),
	)(s.Router())
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	return handlers.LoggingHandler(access, h)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) metrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "frames %d\n", s.Hub.Frames())
	fmt.Fprintf(w, "clients %d\n", s.Hub.Clients())
	fmt.Fprintf(w, "dropped_clients %d\n", s.Hub.Dropped())
	fmt.Fprintf(w, "alarms %d\n", len(s.Alarms.Entries()))
	fmt.Fprintf(w, "waveform_cache_entries %d\n", s.Generator.Len())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a domain error onto a status code.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scenario.ErrUnknownScenario),
		errors.Is(err, scenario.ErrUnknownPath),
		errors.Is(err, assessment.ErrNoQuiz),
		errors.Is(err, assessment.ErrNoAssessment):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.Log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

var errBadRequest = errors.New("bad request")

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	return nil
}
