package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/hcplog/internal/interaction"
	"github.com/MikeSquared-Agency/hcplog/internal/session"
	"github.com/MikeSquared-Agency/hcplog/internal/transcript"
)

type Server struct {
	router  *chi.Mux
	session *session.Controller
	logger  *slog.Logger
	http    *http.Server
}

func NewServer(port int, sess *session.Controller, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		session: sess,
		logger:  logger,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Get("/record", s.getRecord)
		r.Patch("/record", s.patchRecord)
		r.Get("/transcript", s.getTranscript)
		r.Post("/messages", s.postMessage)
		r.Get("/next-best-actions", s.nextBestActions)
	})

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type sessionResponse struct {
	ID     string               `json:"id"`
	State  session.RequestState `json:"state"`
	Record interaction.Record   `json:"record"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Accepted bool                 `json:"accepted"`
	State    session.RequestState `json:"state"`
	Record   interaction.Record   `json:"record"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:     s.session.ID().String(),
		State:  s.session.Observe(),
		Record: s.session.Record(),
	})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Record())
}

func (s *Server) patchRecord(w http.ResponseWriter, r *http.Request) {
	var edit interaction.Edit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.session.Edit(edit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}

	entries := slices.Collect(s.session.TranscriptSince(since))
	if entries == nil {
		entries = []transcript.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   s.session.TranscriptLen(),
	})
}

// postMessage blocks until the round-trip is over. The round-trip is detached
// from the request context so a client disconnect cannot abort it.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	accepted, err := s.session.Submit(context.WithoutCancel(r.Context()), req.Text)
	if err != nil {
		s.logger.Error("submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !accepted {
		writeError(w, http.StatusConflict, "a request is already in flight")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Accepted: true,
		State:    s.session.Observe(),
		Record:   s.session.Record(),
	})
}

func (s *Server) nextBestActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": interaction.NextBestActions(s.session.Record()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
