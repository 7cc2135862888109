package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/buildinfo"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/loader"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/pipeline"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/store"
)

// planRequest is the POST /v1/plan/run body. Absent fields fall back to
// the server's environment-configured defaults.
type planRequest struct {
	DataDir      string                  `json:"data_dir,omitempty"`
	Events       []model.DisruptionEvent `json:"events,omitempty"`
	Seed         *int64                  `json:"seed,omitempty"`
	WriteOutputs bool                    `json:"write_outputs,omitempty"`
	OutputDir    string                  `json:"output_dir,omitempty"`
	Config       json.RawMessage         `json:"config,omitempty"`
}

// planResponse wraps the artifact payload with the stored run ID.
type planResponse struct {
	RunID string `json:"run_id"`
	pipeline.Payload
}

func (s *Server) PlanRunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "invalid request body", err.Error(), r.URL.Path)
		return
	}
	s.runPlan(w, r, req)
}

// PlanSampleHandler runs the bundled dataset with no disruptions.
func (s *Server) PlanSampleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	s.runPlan(w, r, planRequest{})
}

func (s *Server) runPlan(w http.ResponseWriter, r *http.Request, req planRequest) {
	cfg := s.Cfg
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid config", err.Error(), r.URL.Path)
			return
		}
		if err := cfg.Validate(); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid config", err.Error(), r.URL.Path)
			return
		}
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	dataDir := req.DataDir
	if dataDir == "" {
		dataDir = s.DataDir
	}

	ds, err := loader.LoadAll(dataDir)
	if err != nil {
		s.Metrics.PlanRuns.WithLabelValues("validation_error").Inc()
		var verr *loader.ValidationError
		if errors.As(err, &verr) {
			writeProblem(w, http.StatusBadRequest, "invalid input data", verr.Error(), r.URL.Path)
			return
		}
		writeProblem(w, http.StatusBadRequest, "cannot load dataset", err.Error(), r.URL.Path)
		return
	}

	res, err := pipeline.Run(r.Context(), ds, req.Events, cfg)
	if err != nil {
		s.Metrics.PlanRuns.WithLabelValues("error").Inc()
		writeProblem(w, http.StatusInternalServerError, "plan run failed", err.Error(), r.URL.Path)
		return
	}

	if req.WriteOutputs {
		outDir := req.OutputDir
		if outDir == "" {
			outDir = "outputs"
		}
		if err := pipeline.WriteOutputs(outDir, res); err != nil {
			s.Metrics.PlanRuns.WithLabelValues("error").Inc()
			writeProblem(w, http.StatusInternalServerError, "cannot write outputs", err.Error(), r.URL.Path)
			return
		}
	}

	payload := pipeline.BuildPayload(res)
	run := &store.PlanRun{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Seed:        res.Seed,
		EventCount:  res.EventCount,
		DurationMs:  res.Duration.Milliseconds(),
		Summary:     payload.Summary,
		Payload:     payload,
		HasDisrupts: res.EventCount > 0,
	}
	if err := s.Store.SavePlanRun(r.Context(), run); err != nil {
		s.Metrics.PlanRuns.WithLabelValues("error").Inc()
		writeProblem(w, http.StatusInternalServerError, "cannot persist run", err.Error(), r.URL.Path)
		return
	}

	s.recordPlanMetrics(res)
	for _, a := range res.Alerts {
		s.Broker.Publish(AlertEvent{RunID: run.ID, Alert: a})
	}
	if s.Notifier != nil {
		s.Notifier.Enqueue(run.ID, res.Alerts)
	}

	writeJSON(w, http.StatusOK, planResponse{RunID: run.ID, Payload: payload})
}

func (s *Server) recordPlanMetrics(res *pipeline.Result) {
	s.Metrics.PlanRuns.WithLabelValues("ok").Inc()
	s.Metrics.PlanDuration.Observe(res.Duration.Seconds())
	s.Metrics.GAGenerations.Observe(float64(res.Generations))
	for _, a := range res.Plan.Assignments {
		s.Metrics.CargoOutcomes.WithLabelValues(string(a.Status)).Inc()
	}
	for _, a := range res.Alerts {
		s.Metrics.AlertsEmitted.WithLabelValues(string(a.Severity)).Inc()
	}
}

func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	runs, err := s.Store.ListPlanRuns(r.Context(), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "cannot list runs", err.Error(), r.URL.Path)
		return
	}
	if runs == nil {
		runs = []*store.PlanRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "not found", "no such plan run", r.URL.Path)
		return
	}
	run, err := s.Store.GetPlanRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "not found", "no such plan run", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "cannot load run", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{RunID: run.ID, Payload: run.Payload})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "store unavailable", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
