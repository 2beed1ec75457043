package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/aretw0/kiln/internal/logging"
	"github.com/aretw0/kiln/internal/presentation/graph"
	"github.com/aretw0/kiln/pkg/domain"
	"github.com/aretw0/kiln/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Inspector is the read-only view of a build the server exposes.
type Inspector interface {
	Tasks() []domain.Task
	Defaults() []string
	Plan(names ...string) ([]string, error)
}

// Trigger starts runs on behalf of POST /runs.
type Trigger interface {
	Run(ctx context.Context, names ...string) (*domain.RunReport, error)
}

// TaskView is the JSON shape of a task.
type TaskView struct {
	Name        string   `json:"name"`
	Deps        []string `json:"deps"`
	Description string   `json:"description,omitempty"`
	Aggregate   bool     `json:"aggregate"`
}

// Server serves task, plan and run journal data, and starts runs when a
// Trigger is set.
type Server struct {
	Inspector Inspector
	Trigger   Trigger
	Store     ports.RunStore
	Metrics   http.Handler
	Logger    *slog.Logger

	// runMu serializes triggered runs; the build writes to shared outputs.
	runMu sync.Mutex
}

// Option configures the server.
type Option func(*Server)

// WithStore exposes a run journal under /runs.
func WithStore(store ports.RunStore) Option {
	return func(s *Server) { s.Store = store }
}

// WithTrigger mounts POST /runs, which executes tasks through t.
func WithTrigger(t Trigger) Option {
	return func(s *Server) { s.Trigger = t }
}

// WithMetrics mounts a Prometheus handler under /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithLogger sets the logger used for encoding failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewHandler creates the HTTP handler.
func NewHandler(insp Inspector, opts ...Option) http.Handler {
	s := &Server{Inspector: insp, Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/tasks", s.GetTasks)
	r.Get("/plan", s.GetPlan)
	r.Get("/graph", s.GetGraph)
	if s.Store != nil {
		r.Get("/runs", s.ListRuns)
		r.Get("/runs/{id}", s.GetRun)
	}
	if s.Trigger != nil {
		r.Post("/runs", s.PostRun)
	}
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTasks handles GET /tasks.
func (s *Server) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.Inspector.Tasks()
	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		deps := t.Deps
		if deps == nil {
			deps = []string{}
		}
		views[i] = TaskView{Name: t.Name, Deps: deps, Description: t.Description, Aggregate: t.IsAggregate()}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"default": s.Inspector.Defaults(),
		"tasks":   views,
	})
}

// GetPlan handles GET /plan?task=a&task=b.
// Resolution errors are reported as 422 with the error text.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["task"]
	plan, err := s.Inspector.Plan(names...)
	if err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

// GetGraph handles GET /graph. With ?run=<id> the outcome of that run is overlaid.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.Overlay
	if id := r.URL.Query().Get("run"); id != "" && s.Store != nil {
		rec, err := s.Store.Load(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = graph.OverlayFromReport(&rec.RunReport)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(s.Inspector.Tasks(), overlay)))
}

// ListRuns handles GET /runs, newest first. ?limit=N caps the result.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	limit := len(ids)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, limit)
	}

	records := make([]*domain.RunRecord, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(records) < limit; i-- {
		rec, err := s.Store.Load(r.Context(), ids[i])
		if errors.Is(err, domain.ErrRunNotFound) {
			continue // expired between List and Load
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		records = append(records, rec)
	}
	s.writeJSON(w, http.StatusOK, records)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// RunResult is the JSON shape returned by POST /runs.
type RunResult struct {
	*domain.RunReport
	Error string `json:"error,omitempty"`
}

// PostRun handles POST /runs?task=a&task=b. Without task it runs the
// default aggregate. Runs are executed one at a time.
//
// Resolution errors are 422 and run nothing. A run that started answers 200
// with its report, including runs whose Status is failed.
func (s *Server) PostRun(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["task"]

	report, err := s.run(r.Context(), names)

	if report == nil {
		if err == nil {
			err = errors.New("run produced no report")
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	res := RunResult{RunReport: report}
	if err != nil {
		res.Error = err.Error()
		s.Logger.Warn("triggered_run_failed", "run_id", report.ID, "error", err)
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) run(ctx context.Context, names []string) (*domain.RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.Trigger.Run(ctx, names...)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrRunNotFound) {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("encode_failed", "error", err)
	}
}
