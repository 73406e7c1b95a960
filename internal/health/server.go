package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/infra/storage"
	"github.com/castforge/castforge/internal/metrics"
)

// Enqueuer pushes an episode onto the synthesis queue.
type Enqueuer interface {
	EnqueueJob(ctx context.Context, episodeID string) error
}

// Server provides HTTP endpoints for health monitoring and the
// episode API.
type Server struct {
	monitor        *Monitor
	episodes       storage.EpisodeRepository
	events         storage.ErrorEventRepository
	artifacts      *storage.ArtifactStore
	queue          Enqueuer
	defaultEnhance bool
	server         *http.Server
	log            *slog.Logger
}

// NewServer creates a new API server.
func NewServer(
	monitor *Monitor,
	episodes storage.EpisodeRepository,
	events storage.ErrorEventRepository,
	artifacts *storage.ArtifactStore,
	queue Enqueuer,
	defaultEnhance bool,
	port int,
) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor:        monitor,
		episodes:       episodes,
		events:         events,
		artifacts:      artifacts,
		queue:          queue,
		defaultEnhance: defaultEnhance,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		log: slog.Default().With("component", "api"),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/episodes", s.handleCreateEpisode)
	mux.HandleFunc("GET /api/episodes", s.handleListEpisodes)
	mux.HandleFunc("GET /api/episodes/{id}", s.handleGetEpisode)
	mux.HandleFunc("GET /api/episodes/{id}/audio", s.handleEpisodeAudio)
	mux.HandleFunc("GET /api/errors", s.handleErrors)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]string{"status": string(report.Status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

type createEpisodeRequest struct {
	Title        string `json:"title"`
	SourceURL    string `json:"source_url"`
	Script       string `json:"script"`
	VoiceID      string `json:"voice_id"`
	ProviderHint string `json:"provider_hint"`
	Enhance      *bool  `json:"enhance"`
}

type episodeResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SourceURL    string `json:"source_url,omitempty"`
	Status       string `json:"status"`
	Provider     string `json:"provider,omitempty"`
	FallbackUsed bool   `json:"fallback_used"`
	Chunks       int    `json:"chunks,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toEpisodeResponse(ep *domain.Episode) episodeResponse {
	return episodeResponse{
		ID:           ep.ID,
		Title:        ep.Title,
		SourceURL:    ep.SourceURL,
		Status:       string(ep.Status),
		Provider:     ep.Provider,
		FallbackUsed: ep.FallbackUsed,
		Chunks:       ep.Chunks,
		DurationMS:   ep.DurationMS,
		ErrorCode:    ep.ErrorCode,
		CreatedAt:    ep.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    ep.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleCreateEpisode(w http.ResponseWriter, r *http.Request) {
	var req createEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Script == "" && req.SourceURL == "" {
		writeError(w, http.StatusBadRequest, "either script or source_url is required")
		return
	}

	enhance := s.defaultEnhance
	if req.Enhance != nil {
		enhance = *req.Enhance
	}

	now := time.Now()
	ep := &domain.Episode{
		ID:           uuid.NewString(),
		Title:        req.Title,
		SourceURL:    req.SourceURL,
		Script:       req.Script,
		VoiceID:      req.VoiceID,
		ProviderHint: req.ProviderHint,
		Enhance:      enhance,
		Status:       domain.EpisodePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.episodes.Save(r.Context(), ep); err != nil {
		s.log.Error("Failed to save episode", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save episode")
		return
	}
	if err := s.queue.EnqueueJob(r.Context(), ep.ID); err != nil {
		s.log.Error("Failed to enqueue episode", "episode", ep.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue episode")
		return
	}

	metrics.EpisodesTotal.WithLabelValues(string(domain.EpisodePending)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(toEpisodeResponse(ep))
}

func (s *Server) handleListEpisodes(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	eps, err := s.episodes.List(r.Context(), limit)
	if err != nil {
		s.log.Error("Failed to list episodes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list episodes")
		return
	}

	out := make([]episodeResponse, 0, len(eps))
	for _, ep := range eps {
		out = append(out, toEpisodeResponse(ep))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleGetEpisode(w http.ResponseWriter, r *http.Request) {
	ep, err := s.episodes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrEpisodeNotFound) {
			writeError(w, http.StatusNotFound, "episode not found")
			return
		}
		s.log.Error("Failed to get episode", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get episode")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toEpisodeResponse(ep))
}

func (s *Server) handleEpisodeAudio(w http.ResponseWriter, r *http.Request) {
	ep, err := s.episodes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrEpisodeNotFound) {
			writeError(w, http.StatusNotFound, "episode not found")
			return
		}
		s.log.Error("Failed to get episode", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get episode")
		return
	}
	if ep.Status != domain.EpisodeCompleted {
		writeError(w, http.StatusConflict, "episode has no audio yet")
		return
	}

	f, err := s.artifacts.Open(ep.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "audio artifact missing")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeContent(w, r, ep.ID+".wav", ep.UpdatedAt, f)
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.Recent(r.Context(), 100)
	if err != nil {
		s.log.Error("Failed to list error events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list error events")
		return
	}

	type eventResponse struct {
		EpisodeID  string `json:"episode_id"`
		Operation  string `json:"operation"`
		Code       string `json:"code"`
		Severity   string `json:"severity"`
		Message    string `json:"message,omitempty"`
		Suggestion string `json:"suggestion,omitempty"`
		CreatedAt  string `json:"created_at"`
	}
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResponse{
			EpisodeID:  ev.EpisodeID,
			Operation:  ev.Operation,
			Code:       string(ev.Code),
			Severity:   string(ev.Severity),
			Message:    ev.Message,
			Suggestion: ev.Suggestion,
			CreatedAt:  ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
