package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/hcplog/internal/extraction"
	"github.com/MikeSquared-Agency/hcplog/internal/interaction"
	"github.com/MikeSquared-Agency/hcplog/internal/session"
	"github.com/MikeSquared-Agency/hcplog/internal/transcript"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type extractorFunc func(ctx context.Context, text string) (*extraction.Response, error)

func (f extractorFunc) Chat(ctx context.Context, text string) (*extraction.Response, error) {
	return f(ctx, text)
}

func newTestServer(ext session.Extractor) *Server {
	sess := session.New(ext, session.Options{Greeting: "hello"}, discardLogger())
	return NewServer(8760, sess, discardLogger())
}

func backend(t *testing.T, handler http.HandlerFunc) session.Extractor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return extraction.NewClient(srv.URL, 5*time.Second)
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil)

	w := do(srv, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(nil)

	w := do(srv, "GET", "/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPostMessage_ReconcilesRecord(t *testing.T) {
	ext := backend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/interactions/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"success": true, "message": "Logged.", "data": {"hcp_name": "Dr. Smith", "sentiment": "Positive", "materials_shared": "Brochure, Reprint"}}`))
	})
	srv := newTestServer(ext)

	w := do(srv, "POST", "/api/v1/session/messages", `{"text": "Met Dr. Smith, shared brochure"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body messageResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Accepted {
		t.Error("expected accepted")
	}
	if body.State.Phase != session.PhaseSucceeded {
		t.Errorf("expected succeeded, got %s", body.State.Phase)
	}
	if body.Record.HCPName != "Dr. Smith" {
		t.Errorf("expected hcp_name Dr. Smith, got %q", body.Record.HCPName)
	}
	if body.Record.Sentiment != interaction.SentimentPositive {
		t.Errorf("expected Positive, got %q", body.Record.Sentiment)
	}
	if len(body.Record.MaterialsShared) != 2 {
		t.Errorf("expected 2 materials, got %v", body.Record.MaterialsShared)
	}

	// The POST already delivered the terminal state.
	w = do(srv, "GET", "/api/v1/session", "")
	var sess sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if sess.State.Phase != session.PhaseIdle {
		t.Errorf("expected idle after observation, got %s", sess.State.Phase)
	}
	if sess.ID == "" {
		t.Error("expected session id")
	}
}

func TestPostMessage_ServerError(t *testing.T) {
	ext := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := newTestServer(ext)

	w := do(srv, "POST", "/api/v1/session/messages", `{"text": "hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body messageResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.State.Phase != session.PhaseFailed {
		t.Errorf("expected failed, got %s", body.State.Phase)
	}
	if body.State.ErrorMessage != "Server error (500)" {
		t.Errorf("unexpected error message %q", body.State.ErrorMessage)
	}
	if body.Record.HCPName != "" {
		t.Errorf("expected empty record, got %+v", body.Record)
	}
}

func TestPostMessage_EmptyText(t *testing.T) {
	srv := newTestServer(extractorFunc(func(context.Context, string) (*extraction.Response, error) {
		t.Error("extractor must not be called")
		return nil, nil
	}))

	for _, body := range []string{`{"text": "   "}`, `{}`, `not json`} {
		w := do(srv, "POST", "/api/v1/session/messages", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestPostMessage_ConflictWhilePending(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := newTestServer(extractorFunc(func(context.Context, string) (*extraction.Response, error) {
		close(started)
		<-release
		return &extraction.Response{Message: "ok", Data: json.RawMessage(`{}`)}, nil
	}))

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- do(srv, "POST", "/api/v1/session/messages", `{"text": "first"}`)
	}()
	<-started

	w := do(srv, "POST", "/api/v1/session/messages", `{"text": "second"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}

	w = do(srv, "GET", "/api/v1/session", "")
	var sess sessionResponse
	json.NewDecoder(w.Body).Decode(&sess)
	if sess.State.Phase != session.PhasePending {
		t.Errorf("expected pending, got %s", sess.State.Phase)
	}

	close(release)
	if first := <-done; first.Code != http.StatusOK {
		t.Errorf("expected first submit 200, got %d", first.Code)
	}
}

func TestPatchRecord(t *testing.T) {
	srv := newTestServer(nil)

	w := do(srv, "PATCH", "/api/v1/session/record", `{"hcp_name": "Dr. Jones", "sentiment": "Negative", "date": "2025-01-12"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(srv, "GET", "/api/v1/session/record", "")
	var rec interaction.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if rec.HCPName != "Dr. Jones" || rec.Sentiment != interaction.SentimentNegative || rec.Date != "2025-01-12" {
		t.Errorf("edit not applied: %+v", rec)
	}
}

func TestPatchRecord_Invalid(t *testing.T) {
	srv := newTestServer(nil)

	w := do(srv, "PATCH", "/api/v1/session/record", `{"hcp_name": "Dr. Jones", "sentiment": "ecstatic"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["error"] == "" {
		t.Error("expected error message")
	}

	w = do(srv, "GET", "/api/v1/session/record", "")
	var rec interaction.Record
	json.NewDecoder(w.Body).Decode(&rec)
	if rec.HCPName != "" {
		t.Errorf("expected no partial edit, got hcp_name %q", rec.HCPName)
	}

	w = do(srv, "PATCH", "/api/v1/session/record", `{`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestGetTranscript(t *testing.T) {
	srv := newTestServer(extractorFunc(func(context.Context, string) (*extraction.Response, error) {
		return &extraction.Response{Message: "Logged.", Data: json.RawMessage(`{}`)}, nil
	}))
	do(srv, "POST", "/api/v1/session/messages", `{"text": "Met Dr. Smith"}`)

	w := do(srv, "GET", "/api/v1/session/transcript", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Entries []transcript.Entry `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode transcript: %v", err)
	}

	want := []struct {
		kind transcript.Kind
		text string
	}{
		{transcript.KindNotice, "hello"},
		{transcript.KindUser, "Met Dr. Smith"},
		{transcript.KindAssistant, "Logged."},
	}
	if len(body.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(body.Entries))
	}
	for i, e := range body.Entries {
		if e.Kind != want[i].kind || e.Text != want[i].text {
			t.Errorf("entry %d: got %s %q, want %s %q", i, e.Kind, e.Text, want[i].kind, want[i].text)
		}
	}
}

func TestGetTranscript_Since(t *testing.T) {
	srv := newTestServer(extractorFunc(func(context.Context, string) (*extraction.Response, error) {
		return &extraction.Response{Message: "Logged.", Data: json.RawMessage(`{}`)}, nil
	}))
	do(srv, "POST", "/api/v1/session/messages", `{"text": "Met Dr. Smith"}`)

	w := do(srv, "GET", "/api/v1/session/transcript?since=2", "")
	var body struct {
		Entries []transcript.Entry `json:"entries"`
		Total   int                `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode transcript: %v", err)
	}
	if body.Total != 3 {
		t.Errorf("expected total 3, got %d", body.Total)
	}
	if len(body.Entries) != 1 || body.Entries[0].Text != "Logged." {
		t.Errorf("expected only the reply, got %+v", body.Entries)
	}

	w = do(srv, "GET", "/api/v1/session/transcript?since=10", "")
	var empty map[string]json.RawMessage
	json.NewDecoder(w.Body).Decode(&empty)
	if string(empty["entries"]) != "[]" {
		t.Errorf("expected empty list, got %s", empty["entries"])
	}

	w = do(srv, "GET", "/api/v1/session/transcript?since=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative since, got %d", w.Code)
	}
}

func TestNextBestActions(t *testing.T) {
	srv := newTestServer(nil)

	actions := func() []string {
		w := do(srv, "GET", "/api/v1/session/next-best-actions", "")
		var body struct {
			Actions []string `json:"actions"`
		}
		json.NewDecoder(w.Body).Decode(&body)
		return body.Actions
	}

	if got := actions(); len(got) != 1 || got[0] != "Send additional informational materials" {
		t.Errorf("unexpected default actions %v", got)
	}

	do(srv, "PATCH", "/api/v1/session/record", `{"sentiment": "Positive"}`)
	if got := actions(); len(got) != 1 || got[0] != "Schedule product trial / follow-up meeting" {
		t.Errorf("unexpected positive actions %v", got)
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	srv := newTestServer(nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
