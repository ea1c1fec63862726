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

	"articleforge/internal/api/handler"
	"articleforge/internal/article"
	"articleforge/internal/broker"
	"articleforge/internal/generate"
	"articleforge/internal/pipeline"
	"articleforge/internal/store"
	"articleforge/pkg/router"
)

type testEnv struct {
	http   http.Handler
	pipe   *pipeline.Pipeline
	broker *broker.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithQueue(t, 16)
}

func newTestEnvWithQueue(t *testing.T, capacity int) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemStore()
	pipe := pipeline.New(generate.NewStub(), st, pipeline.DefaultConfig(), log)
	b := broker.NewMemory(capacity)

	r := router.New(log)
	RegisterRoutes(r, &handler.Handler{Pipeline: pipe, Store: st, Broker: b, Log: log})
	return &testEnv{http: r.Handler(), pipe: pipe, broker: b}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var payload io.Reader
	if body != "" {
		payload = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, payload)
	rec := httptest.NewRecorder()
	e.http.ServeHTTP(rec, req)
	return rec
}

func submitBody(key string) string {
	return `{"idempotency_key":"` + key + `","inputs":{"topic":"database migrations","sources":"interview-1"}}`
}

func TestSubmitAndDuplicate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/jobs", submitBody("api-key-1"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first submit status = %d, want 202: %s", rec.Code, rec.Body)
	}
	var first handler.SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if first.Duplicate || first.JobID == "" {
		t.Errorf("first submit = %+v, want fresh job", first)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/jobs", submitBody("api-key-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate submit status = %d, want 200", rec.Code)
	}
	var second handler.SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if !second.Duplicate || second.JobID != first.JobID {
		t.Errorf("duplicate submit = %+v, want existing job %q", second, first.JobID)
	}
	if env.broker.Pending() != 1 {
		t.Errorf("pending queue = %d, duplicate must not enqueue", env.broker.Pending())
	}
}

func TestSubmitRejectsBadPayload(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/v1/jobs", "{not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/jobs", `{"inputs":{"topic":"x"}}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing key status = %d, want 400", rec.Code)
	}
}

func TestJobLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if rec := env.do(t, http.MethodPost, "/api/v1/jobs", submitBody("api-key-2")); rec.Code != http.StatusAccepted {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body)
	}

	// Before any stage ran, markdown and quality are not available.
	if rec := env.do(t, http.MethodGet, "/api/v1/jobs/api-key-2/markdown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("markdown before render status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/jobs/api-key-2/quality", ""); rec.Code != http.StatusNotFound {
		t.Errorf("quality before qc status = %d, want 404", rec.Code)
	}

	if err := env.pipe.Run(ctx, "api-key-2"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/jobs/api-key-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get job status = %d", rec.Code)
	}
	var state struct {
		Stage string `json:"stage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.Stage != "PUBLISH" {
		t.Errorf("stage = %q, want PUBLISH", state.Stage)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/jobs/api-key-2/markdown", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("markdown status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("markdown content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "# ") {
		t.Error("markdown body should start with the title heading")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/jobs/api-key-2/quality", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("quality status = %d", rec.Code)
	}
	var quality struct {
		QC    struct{ OK bool }
		Badge article.Badge
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &quality); err != nil {
		t.Fatal(err)
	}
	if !quality.QC.OK {
		t.Error("qc verdict should be passing")
	}
	if quality.Badge.Tone == "" {
		t.Error("badge should be recorded")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/jobs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list length = %d, want 1", len(list))
	}
}

func TestCancelEndpoint(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/v1/jobs", submitBody("api-key-3")); rec.Code != http.StatusAccepted {
		t.Fatal("submit failed")
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/jobs/api-key-3/cancel", ""); rec.Code != http.StatusAccepted {
		t.Errorf("cancel status = %d, want 202", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/jobs/never-seen/cancel", ""); rec.Code != http.StatusNotFound {
		t.Errorf("cancel unknown status = %d, want 404", rec.Code)
	}
}

func TestGetUnknownJob(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/api/v1/jobs/never-seen", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestBadgeEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/badge?confidence=0.9&sources=interview-1,notes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("badge status = %d", rec.Code)
	}
	var badge article.Badge
	if err := json.Unmarshal(rec.Body.Bytes(), &badge); err != nil {
		t.Fatal(err)
	}
	if badge.Tone != article.ToneGreen {
		t.Errorf("tone = %q, want green", badge.Tone)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/badge?confidence=0.9", ""); rec.Code != http.StatusOK {
		t.Fatalf("badge without sources status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/badge?confidence=abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad confidence status = %d, want 400", rec.Code)
	}
}

func TestSubmitRejectedWhenQueueFull(t *testing.T) {
	env := newTestEnvWithQueue(t, 1)
	if !env.broker.Enqueue("occupant") {
		t.Fatal("seeding the queue must succeed")
	}

	rec := env.do(t, http.MethodPost, "/api/v1/jobs", submitBody("api-key-full"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("submit into full queue status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("queue-full response should carry Retry-After")
	}
	// The record was rolled back, so the key is free to submit again.
	if rec := env.do(t, http.MethodGet, "/api/v1/jobs/api-key-full", ""); rec.Code != http.StatusNotFound {
		t.Errorf("rejected job still stored, get status = %d", rec.Code)
	}

	if _, ok := env.broker.Dequeue(context.Background()); !ok {
		t.Fatal("draining the queue must succeed")
	}
	rec = env.do(t, http.MethodPost, "/api/v1/jobs", submitBody("api-key-full"))
	if rec.Code != http.StatusAccepted {
		t.Errorf("resubmit after drain status = %d, want 202: %s", rec.Code, rec.Body)
	}
}

func TestSwaggerRoute(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/swagger/index.html", ""); rec.Code != http.StatusOK {
		t.Errorf("swagger ui status = %d, want 200", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodDelete, "/api/v1/jobs", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
