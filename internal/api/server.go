// Package api exposes the coordinator's status and command endpoints: job
// and helper state reads, server lifecycle commands, uploads, meeting
// analysis, scheduling, and the optional agent-registry integration.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/meetinghub/meetingd/internal/doctor"
	"github.com/meetinghub/meetingd/internal/nanda"
	"github.com/meetinghub/meetingd/internal/orchestrator"
	"github.com/meetinghub/meetingd/internal/store"
	"github.com/meetinghub/meetingd/internal/supervisor"
)

// Server wires the HTTP surface to the coordinator components. All state it
// touches is injected at construction.
type Server struct {
	logger       *slog.Logger
	router       *chi.Mux
	store        *store.Store
	orch         *orchestrator.Orchestrator
	sup          *supervisor.Supervisor
	registry     *nanda.Client
	agentBaseURL string
	diagnose     func() doctor.Report

	maxUploadBytes int64
}

// New constructs the API server over its injected collaborators.
func New(
	logger *slog.Logger,
	st *store.Store,
	orch *orchestrator.Orchestrator,
	sup *supervisor.Supervisor,
	registry *nanda.Client,
	agentBaseURL string,
	diagnose func() doctor.Report,
	maxUploadBytes int64,
) *Server {
	s := &Server{
		logger:         logger,
		router:         chi.NewRouter(),
		store:          st,
		orch:           orch,
		sup:            sup,
		registry:       registry,
		agentBaseURL:   agentBaseURL,
		diagnose:       diagnose,
		maxUploadBytes: maxUploadBytes,
	}
	s.registerRoutes()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(10 * time.Minute))

	s.router.Get("/health", s.health)
	s.router.Post("/servers/start", s.startServers)
	s.router.Post("/servers/stop", s.stopServers)
	s.router.Get("/servers/status", s.serverStatus)

	s.router.Post("/upload", s.upload)
	s.router.Get("/transcription/{id}", s.getTranscription)
	s.router.Get("/transcriptions", s.listTranscriptions)
	s.router.Post("/analyze-meetings", s.analyzeMeetings)
	s.router.Get("/meetings", s.listMeetings)
	s.router.Post("/schedule-meetings", s.scheduleMeetings)

	s.router.Post("/nanda/register", s.registerAgents)
	s.router.Get("/nanda/discover", s.discoverAgents)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	servers := s.sup.StatusAll()
	report := s.diagnose()

	status := "healthy"
	if !report.OK() {
		status = "degraded"
	}
	for _, snap := range servers {
		if !snap.Running {
			status = "degraded"
		}
	}

	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Servers:     servers,
		Environment: report.Environment(),
	})
}

func (s *Server) startServers(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]bool)
	for _, name := range s.sup.Names() {
		err := s.sup.Start(r.Context(), name)
		results[name] = err == nil
		if err != nil {
			s.logger.Warn("server start failed", "helper", name, "error", err.Error())
		}
	}
	s.respondJSON(w, http.StatusOK, ServersResponse{
		Success: allTrue(results),
		Results: results,
		Status:  s.sup.StatusAll(),
	})
}

func (s *Server) stopServers(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]bool)
	for _, name := range s.sup.Names() {
		err := s.sup.Stop(name)
		results[name] = err == nil
		if err != nil {
			s.logger.Warn("server stop failed", "helper", name, "error", err.Error())
		}
	}
	s.respondJSON(w, http.StatusOK, ServersResponse{
		Success: allTrue(results),
		Results: results,
		Status:  s.sup.StatusAll(),
	})
}

func (s *Server) serverStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.sup.StatusAll())
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1024)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.respondJSON(w, http.StatusBadRequest, UploadResponse{Error: "invalid multipart upload"})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, UploadResponse{Error: "no audio file provided"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.respondJSON(w, http.StatusBadRequest, UploadResponse{Error: "no file selected"})
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "error", err.Error())
		s.respondJSON(w, http.StatusInternalServerError, UploadResponse{Error: "failed to read upload"})
		return
	}

	id := s.orch.Submit(audio, header.Filename, r.FormValue("language"), r.FormValue("prompt"))
	s.respondJSON(w, http.StatusOK, UploadResponse{
		Success:         true,
		TranscriptionID: id,
		Status:          string(store.StatusProcessing),
	})
}

func (s *Server) getTranscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.GetTranscription(id)
	if err != nil {
		s.respondJSON(w, http.StatusNotFound, CommandResponse{Error: "transcription not found"})
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

func (s *Server) listTranscriptions(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, TranscriptionsResponse{Transcriptions: s.store.ListTranscriptions()})
}

func (s *Server) analyzeMeetings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TranscriptionID string `json:"transcription_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TranscriptionID == "" {
		s.respondJSON(w, http.StatusBadRequest, CommandResponse{Error: "transcription_id is required"})
		return
	}

	err := s.orch.DetectMeetings(r.Context(), body.TranscriptionID)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, CommandResponse{Success: true})
	case errors.Is(err, store.ErrNotFound):
		s.respondJSON(w, http.StatusNotFound, CommandResponse{Error: "transcription not found"})
	case errors.Is(err, orchestrator.ErrNotCompleted):
		s.respondJSON(w, http.StatusConflict, CommandResponse{Error: "transcription not completed"})
	default:
		s.logger.Warn("meeting detection failed", "job_id", body.TranscriptionID, "error", err.Error())
		s.respondJSON(w, http.StatusOK, CommandResponse{Error: "meeting detection failed"})
	}
}

func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, MeetingsResponse{Meetings: s.store.ListMeetings()})
}

func (s *Server) scheduleMeetings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MeetingIDs []string `json:"meeting_ids"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.respondJSON(w, http.StatusBadRequest, CommandResponse{Error: "invalid request body"})
			return
		}
	}

	outcome := s.orch.Schedule(r.Context(), body.MeetingIDs)
	s.respondJSON(w, http.StatusOK, ScheduleResponse{
		Success:        true,
		ScheduledCount: outcome.ScheduledCount,
		Results:        outcome.Results,
	})
}

// registerAgents advertises both processing stages to the agent registry.
// Registry trouble is reported in the body and never breaks anything else.
func (s *Server) registerAgents(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil || !s.registry.Enabled() {
		s.respondJSON(w, http.StatusOK, RegisterResponse{Message: "agent registry not configured"})
		return
	}

	outcome := s.registry.RegisterAll(r.Context(), s.agentBaseURL)
	s.respondJSON(w, http.StatusOK, RegisterResponse{
		Success:         outcome.RegisteredCount > 0,
		RegisteredCount: outcome.RegisteredCount,
		AgentIDs:        outcome.AgentIDs,
		Message:         outcome.Message,
	})
}

func (s *Server) discoverAgents(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil || !s.registry.Enabled() {
		s.respondJSON(w, http.StatusOK, DiscoverResponse{Agents: []nanda.Agent{}, Error: "agent registry not configured"})
		return
	}

	agents, err := s.registry.DiscoverAgents(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.logger.Warn("agent discovery failed", "error", err.Error())
		s.respondJSON(w, http.StatusOK, DiscoverResponse{Agents: []nanda.Agent{}, Error: "discovery failed"})
		return
	}
	s.respondJSON(w, http.StatusOK, DiscoverResponse{Success: true, Agents: agents, Count: len(agents)})
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode json", "error", err.Error())
	}
}

func allTrue(results map[string]bool) bool {
	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}
