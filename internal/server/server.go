// Package server implements the HTTP study API: clients declare a
// parameter space, pick a named objective and a budget, and poll the
// resulting study until it reaches a terminal state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/banditopt/gmab/internal/config"
	"github.com/banditopt/gmab/internal/logging"
	"github.com/banditopt/gmab/internal/objective"
	"github.com/banditopt/gmab/internal/param"
	"github.com/banditopt/gmab/internal/search"
	"github.com/banditopt/gmab/internal/search/genetic"
	"github.com/banditopt/gmab/internal/search/random"
	"github.com/banditopt/gmab/internal/study"
)

// Study run states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// runState tracks one study from acceptance to a terminal state.
// Access goes through the server mutex.
type runState struct {
	id        string
	status    string
	objective string
	budget    int
	started   time.Time
	ended     *time.Time
	study     *study.Study
	cancel    context.CancelFunc
	errMsg    string
}

// Server owns the set of studies started over HTTP.
type Server struct {
	cfg    *config.Config
	logger *logging.Logger
	zlog   *zap.Logger

	mu   sync.RWMutex
	runs map[string]*runState
}

// New creates a Server.
func New(cfg *config.Config, logger *logging.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		zlog:   logging.NewZapLogger(logger),
		runs:   make(map[string]*runState),
	}
}

// RegisterRoutes mounts the study API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/studies", s.handleCreateStudy)
		r.Get("/studies/{id}", s.handleGetStudy)
		r.Delete("/studies/{id}", s.handleCancelStudy)
		r.Get("/objectives", s.handleListObjectives)
	})
}

type createStudyRequest struct {
	Parameters []param.Spec `json:"parameters"`
	Objective  string       `json:"objective"`
	Budget     int          `json:"budget"`
	Engine     string       `json:"engine,omitempty"`
	Seed       uint64       `json:"seed,omitempty"`
}

func (s *Server) handleCreateStudy(w http.ResponseWriter, r *http.Request) {
	var req createStudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Parameters) == 0 {
		s.respondError(w, http.StatusBadRequest, errors.New("at least one parameter is required"))
		return
	}

	obj, err := objective.Lookup(req.Objective)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	budget := req.Budget
	if budget == 0 {
		budget = s.cfg.Search.DefaultBudget
	}
	if budget < 1 {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("%w: got %d", search.ErrNonPositiveBudget, budget))
		return
	}

	engine, err := s.engineFor(req.Engine, req.Seed)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	st := study.New(study.WithEngine(engine), study.WithLogger(s.logger))
	for _, spec := range req.Parameters {
		if err := st.Space().Apply(spec); err != nil {
			s.respondError(w, http.StatusBadRequest, err)
			return
		}
	}

	id := fmt.Sprintf("study_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())
	state := &runState{
		id:        id,
		status:    StatusPending,
		objective: req.Objective,
		budget:    budget,
		started:   time.Now(),
		study:     st,
		cancel:    cancel,
	}

	s.mu.Lock()
	s.runs[id] = state
	s.mu.Unlock()

	studiesStarted.Inc()
	s.logger.Info("study accepted", map[string]interface{}{
		"study_id":   id,
		"objective":  req.Objective,
		"budget":     budget,
		"dimensions": st.Space().Len(),
	})

	counted := func(x []int64) (float64, error) {
		evaluationsTotal.Inc()
		return obj(x)
	}
	go s.runStudy(ctx, state, counted)

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"study_id": id,
		"status":   StatusPending,
	})
}

// engineFor builds the engine for one study. The per-study seed wins
// over the configured one so remote callers can reproduce a run.
func (s *Server) engineFor(name string, seed uint64) (search.Engine, error) {
	if name == "" {
		name = s.cfg.Search.Engine
	}
	if seed == 0 {
		seed = s.cfg.Search.Seed
	}

	switch name {
	case "genetic":
		return genetic.New(genetic.Config{
			PopulationSize: s.cfg.Search.PopulationSize,
			MutationRate:   s.cfg.Search.MutationRate,
			CrossoverRate:  s.cfg.Search.CrossoverRate,
			MutationSpan:   s.cfg.Search.MutationSpan,
			Seed:           seed,
		}, genetic.WithLogger(s.zlog)), nil
	case "random":
		return random.New(seed), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// runStudy executes one study in its own goroutine and records the
// terminal state.
func (s *Server) runStudy(ctx context.Context, state *runState, obj search.Objective) {
	s.mu.Lock()
	if state.status != StatusPending {
		// Cancelled before the run started; the cancel handler already
		// recorded the terminal state.
		studiesFinished.WithLabelValues(state.status).Inc()
		s.mu.Unlock()
		return
	}
	state.status = StatusRunning
	s.mu.Unlock()

	err := state.study.Optimize(ctx, obj, state.budget)

	s.mu.Lock()
	defer s.mu.Unlock()

	if state.ended == nil {
		now := time.Now()
		state.ended = &now
	}
	switch {
	case err == nil:
		state.status = StatusCompleted
	case errors.Is(err, context.Canceled):
		state.status = StatusCancelled
	default:
		state.status = StatusFailed
		state.errMsg = err.Error()
		s.logger.Error("study failed", map[string]interface{}{
			"study_id": state.id,
			"error":    err.Error(),
		})
	}
	studiesFinished.WithLabelValues(state.status).Inc()
}

func (s *Server) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	state, ok := s.runs[id]
	if !ok {
		s.mu.RUnlock()
		s.respondError(w, http.StatusNotFound, fmt.Errorf("study %q not found", id))
		return
	}

	resp := map[string]interface{}{
		"study_id":   state.id,
		"status":     state.status,
		"objective":  state.objective,
		"budget":     state.budget,
		"start_time": state.started.Format(time.RFC3339Nano),
	}
	if state.ended != nil {
		resp["end_time"] = state.ended.Format(time.RFC3339Nano)
	}
	if state.errMsg != "" {
		resp["error"] = state.errMsg
	}
	st := state.study
	s.mu.RUnlock()

	if best, err := st.BestTrial(); err == nil {
		assignment, _ := st.BestAssignment()
		resp["best_trial"] = assignment
		resp["best_score"] = best.Score
		resp["evaluations"] = best.Evaluations
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelStudy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	state, ok := s.runs[id]
	if !ok {
		s.mu.Unlock()
		s.respondError(w, http.StatusNotFound, fmt.Errorf("study %q not found", id))
		return
	}

	switch state.status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		status := state.status
		s.mu.Unlock()
		s.respondError(w, http.StatusConflict, fmt.Errorf("cannot cancel study with status %q", status))
		return
	}

	state.cancel()
	state.status = StatusCancelled
	now := time.Now()
	state.ended = &now
	s.mu.Unlock()

	s.logger.Info("study cancelled", map[string]interface{}{"study_id": id})
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"study_id": id,
		"status":   StatusCancelled,
	})
}

func (s *Server) handleListObjectives(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"objectives": objective.Names(),
	})
}

// Close cancels every running study.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, state := range s.runs {
		if state.cancel != nil {
			state.cancel()
		}
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request rejected", map[string]interface{}{
		"status": status,
		"error":  err.Error(),
	})
	s.respondJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"kind":  kindOf(err),
	})
}

// kindOf maps an error to the taxonomy the API reports: type errors
// (wrongly typed input), value errors (structurally invalid input),
// and state errors (reads that arrived too early).
func kindOf(err error) string {
	switch {
	case errors.Is(err, param.ErrNotInteger):
		return "type_error"
	case errors.Is(err, param.ErrEmptyDomain),
		errors.Is(err, param.ErrInvertedDomain),
		errors.Is(err, param.ErrNonPositiveSize),
		errors.Is(err, search.ErrNonPositiveBudget),
		errors.Is(err, search.ErrNoBounds),
		errors.Is(err, search.ErrInvalidBounds),
		errors.Is(err, objective.ErrUnknown):
		return "value_error"
	case errors.Is(err, study.ErrBestTrialUnavailable):
		return "state_error"
	default:
		return "request_error"
	}
}
