package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/goleak"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/internal/report"
	"github.com/dwsmith1983/outcome/internal/store"
	"github.com/dwsmith1983/outcome/pkg/problem"
	"github.com/dwsmith1983/outcome/pkg/types"
)

func TestMain(m *testing.M) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu      sync.Mutex
	reports []report.BatchReport
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, r report.BatchReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type downStore struct{ store.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

type testEnv struct {
	srv   *Server
	store *store.MemoryStore
	sink  *recordingSink
}

func setupTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg, err := config.Parse([]byte("server:\n  addr: \":0\"\n"))
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}

	st := store.NewMemory()
	sink := &recordingSink{}
	d, err := report.NewDispatcher(nil, report.WithSinks(sink))
	require.NoError(t, err)

	srv := New(cfg, Deps{
		Members: member.NewService(st, member.WithConcurrency(2)),
		Store:   st,
		Reports: d,
		Logger:  discardLogger(),
	})
	return &testEnv{srv: srv, store: st, sink: sink}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, problem.ContentTypeJSON, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthEndpoint_Degraded(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	st := downStore{store.NewMemory()}
	srv := New(cfg, Deps{Members: member.NewService(st), Store: st})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, rec.Body.String())
}

func TestRegisterMember(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members", `{"email":"ada@example.com","name":"Ada","age":36}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, problem.ContentTypeJSON, rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, "Member registered.", body["successMessage"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "ada@example.com", data["email"])
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, 1, env.store.Len())

	get := env.do(t, http.MethodGet, "/api/members/"+data["id"].(string), "", nil)
	assert.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "Ada", decode(t, get)["data"].(map[string]any)["name"])
}

func TestRegisterMember_Invalid(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members", `{"email":"","name":"Ada","age":0}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, problem.ContentTypeProblem, rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, types.AboutBlank, body["type"])
	assert.Equal(t, problem.InvalidTitle, body["title"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Equal(t, "/api/members", body["instance"])
	assert.Equal(t, map[string]any{
		"Email": []any{"Email is required."},
		"Age":   []any{"Age must be positive."},
	}, body["errors"])
	requestID := rec.Header().Get(HeaderRequestID)
	require.NotEmpty(t, requestID)
	assert.Equal(t, map[string]any{"traceId": requestID}, body["extensions"])
}

func TestRegisterMember_MalformedBody(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members", `{"email":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Equal(t, []any{"The request body must be valid JSON."}, errs["body"])
}

func TestRegisterMember_DuplicateEmail(t *testing.T) {
	env := setupTestServer(t, nil)
	payload := `{"email":"ada@example.com","name":"Ada","age":36}`

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/members", payload, nil).Code)
	rec := env.do(t, http.MethodPost, "/api/members", payload, map[string]string{HeaderRequestID: "req-1"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, types.KindConflict.ProblemType(), body["type"])
	assert.Equal(t, "Conflict. "+problem.DefaultErrorTitle, body["title"])
	assert.Equal(t, "A member with email ada@example.com already exists.", body["detail"])
	assert.Equal(t, map[string]any{"traceId": "req-1"}, body["extensions"])
}

func TestGetMember_NotFound(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/members/missing", "", map[string]string{HeaderRequestID: "req-42"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))

	body := decode(t, rec)
	assert.Equal(t, types.AboutBlank, body["type"])
	assert.Equal(t, problem.NotFoundTitle, body["title"])
	assert.Equal(t, problem.NotFoundDetail, body["detail"])
	assert.Equal(t, "/api/members/missing", body["instance"])
	assert.Equal(t, map[string]any{"traceId": "req-42"}, body["extensions"])
}

func TestGetMember_TraceparentWins(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/members/missing", "", map[string]string{
		HeaderRequestID: "req-42",
		"traceparent":   "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"traceId": "4bf92f3577b34da6a3ce929d0e0e4736"}, decode(t, rec)["extensions"])
}

func TestRegisterBatch_AllValid(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members/batch", `{"members":[
		{"email":"a@example.com","name":"A","age":20},
		{"email":"b@example.com","name":"B","age":30}
	]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "2 members registered.", body["successMessage"])
	assert.Len(t, body["data"], 2)
	assert.Equal(t, 2, env.store.Len())
}

func TestRegisterBatch_MergesFailures(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members/batch", `{"members":[
		{"email":"","name":"A","age":20},
		{"email":"b@example.com","name":"B","age":0}
	]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{
		"Email": []any{"Email is required."},
		"Age":   []any{"Age must be positive."},
	}, decode(t, rec)["errors"])

	// A duplicate is an operational failure and takes precedence.
	rec = env.do(t, http.MethodPost, "/api/members/batch", `{"members":[
		{"email":"b@example.com","name":"B","age":30},
		{"email":"b@example.com","name":"B","age":30},
		{"email":"","name":"C","age":40}
	]}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A member with email b@example.com already exists.", decode(t, rec)["detail"])
}

func TestRegisterBatch_Bounds(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members/batch", `{"members":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"At least one member is required."}, decode(t, rec)["errors"].(map[string]any)["members"])

	members := make([]string, 101)
	for i := range members {
		members[i] = `{"email":"x@example.com","name":"X","age":1}`
	}
	rec = env.do(t, http.MethodPost, "/api/members/batch", `{"members":[`+strings.Join(members, ",")+`]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.store.Len())
}

func TestReportBatch(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members/batch/report", `{"members":[
		{"email":"","name":"A","age":20},
		{"email":"b@example.com","name":"B","age":0},
		{"email":"c@example.com","name":"C","age":30}
	]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got report.BatchReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.BatchID)
	assert.Equal(t, "flat", got.Fidelity)
	assert.Equal(t, 3, got.Size)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, types.StatusInvalid, got.Groups[0].Status)
	assert.Equal(t, []string{"Email is required.", "Age must be positive."}, got.Groups[0].Messages)
	assert.Empty(t, got.Groups[0].Fields)

	require.Len(t, env.sink.reports, 1)
	assert.Equal(t, got.BatchID, env.sink.reports[0].BatchID)
	assert.Equal(t, 2, env.sink.reports[0].Failed)
}

func TestReportBatch_DetailedOverride(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/members/batch/report?fidelity=detailed",
		`{"members":[{"email":"","name":"A","age":20}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got report.BatchReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "detailed", got.Fidelity)
	require.Len(t, got.Groups, 1)
	assert.Empty(t, got.Groups[0].Messages)
	assert.Equal(t, []types.FieldMessages{{Field: "Email", Messages: []string{"Email is required."}}}, got.Groups[0].Fields)

	rec = env.do(t, http.MethodPost, "/api/members/batch/report?fidelity=verbose",
		`{"members":[{"email":"","name":"A","age":20}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportBatch_SinkFailureStillAnswers(t *testing.T) {
	env := setupTestServer(t, nil)
	env.sink.err = errors.New("unreachable")

	rec := env.do(t, http.MethodPost, "/api/members/batch/report",
		`{"members":[{"email":"a@example.com","name":"A","age":20}]}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.sink.reports, 1)
}

func TestAPIKeyAuth(t *testing.T) {
	env := setupTestServer(t, func(cfg *config.Config) { cfg.Server.APIKey = "secret" })

	rec := env.do(t, http.MethodGet, "/api/members/x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, problem.ContentTypeProblem, rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, types.KindUnauthorized.ProblemType(), body["type"])
	assert.Equal(t, "A valid X-API-Key header is required.", body["detail"])

	rec = env.do(t, http.MethodGet, "/api/members/x", "", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/members/x", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Health is exempt.
	rec = env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_OnlyHealthRouteIsExempt(t *testing.T) {
	env := setupTestServer(t, func(cfg *config.Config) { cfg.Server.APIKey = "secret" })
	require.NoError(t, env.store.Create(context.Background(), store.Member{
		ID: "health", Email: "ada@example.com", Name: "Ada", Age: 36,
	}))

	rec := env.do(t, http.MethodGet, "/api/members/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "ada@example.com")

	rec = env.do(t, http.MethodGet, "/api/members/health", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada@example.com")
}

func TestMaxBody(t *testing.T) {
	env := setupTestServer(t, func(cfg *config.Config) { cfg.Server.MaxRequestBody = 16 })

	rec := env.do(t, http.MethodPost, "/api/members", `{"email":"ada@example.com","name":"Ada","age":36}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Equal(t, []any{"The request body must not exceed 16 bytes."}, errs["body"])
}

func TestRecoverMiddleware(t *testing.T) {
	h := RequestIDMiddleware(RecoverMiddleware(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/explode", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, types.KindUnknown.ProblemType(), body["type"])
	assert.Equal(t, "An unexpected error occurred.", body["detail"])
	assert.Equal(t, "/api/explode", body["instance"])
	assert.Equal(t, map[string]any{"traceId": "req-7"}, body["extensions"])
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		assert.Equal(t, seen, problem.TraceIDFromContext(r.Context()))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 26)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}
