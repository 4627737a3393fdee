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
	"github.com/google/uuid"

	"github.com/chaitanya176/aco-last-mile/internal/config"
	"github.com/chaitanya176/aco-last-mile/internal/dataset"
	"github.com/chaitanya176/aco-last-mile/internal/logging"
	"github.com/chaitanya176/aco-last-mile/internal/metrics"
	"github.com/chaitanya176/aco-last-mile/internal/optimization"
	"github.com/chaitanya176/aco-last-mile/internal/optimization/aco"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

var (
	errJobNotFound = errors.New("optimization not found")
	errTooManyJobs = errors.New("too many active optimizations")
	errJobFinished = errors.New("optimization already finished")
)

// OptimizationState represents the state of an optimization job.
// Fields are guarded by the owning server's mutex.
type OptimizationState struct {
	ID           string
	Status       string
	StartTime    time.Time
	EndTime      *time.Time
	LastUpdated  time.Time
	Nodes        []dataset.Point
	Config       aco.Config
	BestSolution *optimization.Solution
	Err          error
	Optimizer    optimization.Optimizer
	CancelFunc   context.CancelFunc
}

func (s *OptimizationState) terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Server implements the HTTP and JSON-RPC server for the optimization service.
// It manages optimization jobs and provides endpoints to start, monitor, and cancel them.
type Server struct {
	cfg    *config.Config
	logger Logger

	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex
	active          int

	wg sync.WaitGroup
}

// NewServer creates a new server instance with the given config and logger
func NewServer(cfg *config.Config, logger Logger) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		optimizations: make(map[string]*OptimizationState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// solverParams carries optional per-job overrides of the server's solver
// defaults.
type solverParams struct {
	Alpha    *float64 `json:"alpha,omitempty"`
	Beta     *float64 `json:"beta,omitempty"`
	Rho      *float64 `json:"rho,omitempty"`
	Q        *float64 `json:"q,omitempty"`
	Elite    *float64 `json:"elite,omitempty"`
	T0       *float64 `json:"t0,omitempty"`
	Limit    *int     `json:"limit,omitempty"`
	AntCount *int     `json:"ant_count,omitempty"`
	Start    *int     `json:"start,omitempty"`
	Workers  *int     `json:"workers,omitempty"`
}

func (p *solverParams) apply(cfg aco.Config) aco.Config {
	if p == nil {
		return cfg
	}
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat(&cfg.Alpha, p.Alpha)
	setFloat(&cfg.Beta, p.Beta)
	setFloat(&cfg.Rho, p.Rho)
	setFloat(&cfg.Q, p.Q)
	setFloat(&cfg.Elite, p.Elite)
	setFloat(&cfg.T0, p.T0)
	setInt(&cfg.Limit, p.Limit)
	setInt(&cfg.AntCount, p.AntCount)
	setInt(&cfg.Start, p.Start)
	setInt(&cfg.Workers, p.Workers)
	return cfg
}

type startParams struct {
	Nodes   [][]float64   `json:"nodes,omitempty"`
	Dataset int           `json:"dataset,omitempty"`
	Config  *solverParams `json:"config,omitempty"`
	Seed    *int64        `json:"seed,omitempty"`
}

type idParams struct {
	OptimizationID string `json:"optimization_id"`
}

func (p startParams) points() ([]dataset.Point, error) {
	switch {
	case len(p.Nodes) > 0 && p.Dataset != 0:
		return nil, optimization.InvalidConfigurationf("nodes and dataset are mutually exclusive")
	case p.Dataset != 0:
		pts, err := dataset.Lookup(p.Dataset)
		if err != nil {
			return nil, optimization.WrapError(optimization.ErrInvalidConfiguration, err.Error())
		}
		return pts, nil
	case len(p.Nodes) == 0:
		return nil, optimization.InvalidConfigurationf("nodes or dataset is required")
	}

	pts := make([]dataset.Point, len(p.Nodes))
	for i, n := range p.Nodes {
		if len(n) != 2 {
			return nil, optimization.InvalidConfigurationf("node %d: expected [x, y], got %d values", i, len(n))
		}
		pts[i] = dataset.Point{n[0], n[1]}
	}
	return pts, nil
}

// startOptimization validates params, registers a job and runs it in the
// background.
func (s *Server) startOptimization(params startParams) (map[string]interface{}, error) {
	nodes, err := params.points()
	if err != nil {
		return nil, err
	}

	cfg := params.Config.apply(s.cfg.SolverConfig())
	if params.Seed != nil {
		cfg.Seed = *params.Seed
	}
	if limit := s.cfg.Optimization.WorkerCount; limit > 0 && cfg.Workers > limit {
		cfg.Workers = limit
	}
	if cfg.Start >= len(nodes) {
		return nil, optimization.InvalidConfigurationf("start node %d out of range for %d nodes", cfg.Start, len(nodes))
	}

	world, err := aco.NewWorld(nodes, dataset.Euclidean)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	jobLogger := s.logger.WithFields(map[string]interface{}{
		"optimization_id": id,
	})
	observer := metrics.NewRunObserver(id)

	solver, err := aco.NewSolver[dataset.Point](cfg,
		aco.WithLogger(jobLogger.Zap()),
		aco.WithObserver(observer),
	)
	if err != nil {
		return nil, err
	}

	s.optimizationsMu.Lock()
	if limit := s.cfg.Optimization.MaxJobs; limit > 0 && s.active >= limit {
		s.optimizationsMu.Unlock()
		return nil, errTooManyJobs
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	state := &OptimizationState{
		ID:          id,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Nodes:       nodes,
		Config:      solver.Config(),
		Optimizer:   aco.NewRun(solver, world),
		CancelFunc:  cancel,
	}
	s.optimizations[id] = state
	s.active++
	s.wg.Add(1)
	s.optimizationsMu.Unlock()

	jobLogger.Info("Optimization started", map[string]interface{}{
		"nodes": len(nodes),
		"limit": cfg.Limit,
		"ants":  cfg.AntCount,
	})

	go s.runOptimization(ctx, state, jobLogger, observer)

	return map[string]interface{}{
		"optimization_id": id,
		"status":          StatusPending,
	}, nil
}

// runOptimization executes the optimization process in a goroutine
func (s *Server) runOptimization(ctx context.Context, state *OptimizationState, logger *logging.Logger, observer *metrics.RunObserver) {
	defer s.wg.Done()
	defer observer.Forget()

	s.optimizationsMu.Lock()
	if state.Status == StatusPending {
		state.Status = StatusRunning
		state.LastUpdated = time.Now()
	}
	s.optimizationsMu.Unlock()
	metrics.JobStarted()

	result, err := state.Optimizer.Optimize(ctx)

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	if result != nil {
		state.BestSolution = result.BestSolution
	}
	switch {
	case state.Status == StatusCancelled, errors.Is(err, context.Canceled):
		state.Status = StatusCancelled
	case err != nil:
		state.Status = StatusFailed
		state.Err = err
		logger.WithError(err).Error("Optimization failed")
	default:
		state.Status = StatusCompleted
		fields := map[string]interface{}{"iterations": result.Iterations}
		if result.BestSolution != nil {
			fields["distance"] = result.BestSolution.Distance
		}
		logger.Info("Optimization completed", fields)
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	state.CancelFunc()
	s.active--
	metrics.JobFinished(state.Status)
}

// optimizationStatus returns the current status and results of an optimization job.
func (s *Server) optimizationStatus(id string) (map[string]interface{}, error) {
	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, exists := s.optimizations[id]
	if !exists {
		return nil, errJobNotFound
	}

	history := state.Optimizer.GetHistory()
	progress := 0.0
	if state.Config.Limit > 0 {
		progress = float64(len(history)) / float64(state.Config.Limit)
	}

	response := map[string]interface{}{
		"optimization_id": state.ID,
		"status":          state.Status,
		"progress":        progress,
		"iterations":      len(history),
		"limit":           state.Config.Limit,
		"start_time":      state.StartTime.Format(time.RFC3339),
		"last_update":     state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != nil {
		response["error"] = state.Err.Error()
	}

	best := state.BestSolution
	if best == nil {
		best = state.Optimizer.GetBestSolution()
	}
	if best != nil {
		foundAt := 0
		if len(history) > 0 {
			foundAt = history[len(history)-1].FoundAt
		}
		tour := make([]dataset.Point, len(best.Visited))
		for i, v := range best.Visited {
			tour[i] = state.Nodes[v]
		}
		response["best_solution"] = map[string]interface{}{
			"visited":  best.Visited,
			"tour":     tour,
			"distance": best.Distance,
			"found_at": foundAt,
		}
	}

	if len(history) > 0 {
		historyData := make([]map[string]interface{}, len(history))
		for i, eval := range history {
			historyData[i] = map[string]interface{}{
				"iteration":      eval.Iteration,
				"distance":       eval.Solution.Distance,
				"iteration_best": eval.IterationBest,
				"mean":           eval.Mean,
				"std_dev":        eval.StdDev,
			}
		}
		response["history"] = historyData
	}

	return response, nil
}

// cancelOptimization cancels a pending or running optimization job.
func (s *Server) cancelOptimization(id string) error {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, exists := s.optimizations[id]
	if !exists {
		return errJobNotFound
	}
	if state.terminal() {
		return fmt.Errorf("%w: status %s", errJobFinished, state.Status)
	}

	state.Optimizer.Stop()
	state.CancelFunc()
	state.Status = StatusCancelled
	state.LastUpdated = time.Now()

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})

	return nil
}

// Close cancels all running optimizations and waits for them to return.
func (s *Server) Close() error {
	s.optimizationsMu.Lock()
	for _, opt := range s.optimizations {
		if !opt.terminal() {
			opt.Optimizer.Stop()
			opt.CancelFunc()
		}
	}
	s.optimizationsMu.Unlock()

	s.wg.Wait()
	return nil
}

// handleOptimize handles POST /api/v1/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var params startParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	result, err := s.startOptimization(params)
	if err != nil {
		writeJSON(w, httpStatus(err), map[string]interface{}{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.optimizationStatus(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, httpStatus(err), map[string]interface{}{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCancel handles DELETE /api/v1/optimization/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.cancelOptimization(chi.URLParam(r, "id")); err != nil {
		writeJSON(w, httpStatus(err), map[string]interface{}{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "cancellation requested",
	})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, errJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, errJobFinished):
		return http.StatusConflict
	case errors.Is(err, errTooManyJobs):
		return http.StatusTooManyRequests
	case errors.Is(err, optimization.ErrInvalidConfiguration),
		errors.Is(err, optimization.ErrDegenerateGraph):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
