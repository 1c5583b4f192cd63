// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reco/internal/models"
	"github.com/tomtom215/reco/internal/recommend"
	"github.com/tomtom215/reco/internal/supervisor/services"
)

// fakeStore records the arguments of the last query.
type fakeStore struct {
	pingErr  error
	queryErr error
	rows     []recommend.Row

	gotUser  int64
	gotLimit int
	gotAlgo  string
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) UserRecommendations(_ context.Context, user int64, limit int, algo string) ([]recommend.Row, error) {
	f.gotUser, f.gotLimit, f.gotAlgo = user, limit, algo
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeStore) AllRecommendations(_ context.Context, limit int) ([]recommend.Row, error) {
	f.gotLimit = limit
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

type fakeScheduler struct {
	triggers int
	queued   bool
	status   services.RunStatus
}

func (f *fakeScheduler) Trigger() bool {
	f.triggers++
	return f.queued
}

func (f *fakeScheduler) Status() services.RunStatus { return f.status }

// envelope mirrors models.APIResponse with a raw data payload.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func serve(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (body %q)", method, target, err, rec.Body.String())
	}
	return rec, env
}

func newTestRouter(store *fakeStore, sched Scheduler) http.Handler {
	mc := DefaultChiMiddlewareConfig()
	mc.RateLimitDisabled = true
	return NewRouter(NewHandler(store, sched, time.Second), nil, NewChiMiddleware(mc))
}

func sampleRows() []recommend.Row {
	at := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	return []recommend.Row{
		{UserID: 7, ItemID: 42, Score: 4.5, Rank: 1, AlgoVersion: recommend.AlgoHybridUserCFPop, RunID: "run-1", GeneratedAt: at},
		{UserID: 7, ItemID: 3, Score: 4.1, Rank: 2, AlgoVersion: recommend.AlgoHybridUserCFPop, RunID: "run-1", GeneratedAt: at},
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		sched      Scheduler
		wantCode   int
		wantStatus string
	}{
		{name: "healthy", wantCode: http.StatusOK, wantStatus: "healthy", sched: &fakeScheduler{}},
		{name: "database down", pingErr: errors.New("closed"), wantCode: http.StatusServiceUnavailable, wantStatus: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeStore{pingErr: tt.pingErr}, tt.sched)
			rec, env := serve(t, router, http.MethodGet, "/healthz")

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var health models.HealthStatus
			if err := json.Unmarshal(env.Data, &health); err != nil {
				t.Fatalf("decode health: %v", err)
			}
			if health.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", health.Status, tt.wantStatus)
			}
			if health.SchedulerEnabled != (tt.sched != nil) {
				t.Errorf("scheduler_enabled = %v, want %v", health.SchedulerEnabled, tt.sched != nil)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestUserRecommendations(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantLimit int
		wantAlgo  string
	}{
		{name: "default limit", target: "/api/v1/users/7/recommendations", wantLimit: DefaultUserLimit},
		{name: "explicit limit and algo", target: "/api/v1/users/7/recommendations?limit=5&algo=hybrid_usercf_pop", wantLimit: 5, wantAlgo: "hybrid_usercf_pop"},
		{name: "limit clamped high", target: "/api/v1/users/7/recommendations?limit=500", wantLimit: MaxLimit},
		{name: "limit clamped low", target: "/api/v1/users/7/recommendations?limit=0", wantLimit: 1},
		{name: "non-numeric limit falls back", target: "/api/v1/users/7/recommendations?limit=ten", wantLimit: DefaultUserLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{rows: sampleRows()}
			rec, env := serve(t, newTestRouter(store, nil), http.MethodGet, tt.target)

			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, want 200 (body %s)", rec.Code, rec.Body.String())
			}
			if store.gotUser != 7 {
				t.Errorf("user = %d, want 7", store.gotUser)
			}
			if store.gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", store.gotLimit, tt.wantLimit)
			}
			if store.gotAlgo != tt.wantAlgo {
				t.Errorf("algo = %q, want %q", store.gotAlgo, tt.wantAlgo)
			}

			var rows []recommend.Row
			if err := json.Unmarshal(env.Data, &rows); err != nil {
				t.Fatalf("decode rows: %v", err)
			}
			if len(rows) != 2 || rows[0].ItemID != 42 || rows[1].Rank != 2 {
				t.Errorf("rows = %+v, want the two stored rows in rank order", rows)
			}
		})
	}
}

func TestUserRecommendationsErrors(t *testing.T) {
	tests := []struct {
		name     string
		store    *fakeStore
		target   string
		wantCode int
		wantErr  string
	}{
		{name: "non-numeric user", store: &fakeStore{}, target: "/api/v1/users/abc/recommendations", wantCode: http.StatusBadRequest, wantErr: models.ErrCodeValidation},
		{name: "zero user", store: &fakeStore{}, target: "/api/v1/users/0/recommendations", wantCode: http.StatusBadRequest, wantErr: models.ErrCodeValidation},
		{name: "oversized algo", store: &fakeStore{}, target: "/api/v1/users/1/recommendations?algo=" + strings.Repeat("a", 65), wantCode: http.StatusBadRequest, wantErr: models.ErrCodeValidation},
		{name: "store failure", store: &fakeStore{queryErr: errors.New("io error")}, target: "/api/v1/users/1/recommendations", wantCode: http.StatusInternalServerError, wantErr: models.ErrCodeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := serve(t, newTestRouter(tt.store, nil), http.MethodGet, tt.target)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if env.Status != "error" || env.Error == nil {
				t.Fatalf("envelope = %+v, want an error", env)
			}
			if env.Error.Code != tt.wantErr {
				t.Errorf("error code = %q, want %q", env.Error.Code, tt.wantErr)
			}
			if strings.Contains(rec.Body.String(), "io error") {
				t.Error("internal error text leaked into the response")
			}
		})
	}
}

func TestUserRecommendationsEmptyIsArray(t *testing.T) {
	rec, env := serve(t, newTestRouter(&fakeStore{}, nil), http.MethodGet, "/api/v1/users/9/recommendations")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if string(env.Data) != "[]" {
		t.Errorf("data = %s, want []", env.Data)
	}
}

func TestAdminRecommendations(t *testing.T) {
	tests := []struct {
		target    string
		wantLimit int
	}{
		{target: "/api/v1/admin/recommendations", wantLimit: DefaultAdminLimit},
		{target: "/api/v1/admin/recommendations?limit=3", wantLimit: 3},
		{target: "/api/v1/admin/recommendations?limit=99", wantLimit: MaxLimit},
		{target: "/api/v1/admin/recommendations?limit=-4", wantLimit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			store := &fakeStore{rows: sampleRows()}
			rec, _ := serve(t, newTestRouter(store, nil), http.MethodGet, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, want 200", rec.Code)
			}
			if store.gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", store.gotLimit, tt.wantLimit)
			}
		})
	}
}

func TestRecompute(t *testing.T) {
	t.Run("queues a run", func(t *testing.T) {
		sched := &fakeScheduler{queued: true}
		rec, env := serve(t, newTestRouter(&fakeStore{}, sched), http.MethodPost, "/api/v1/admin/recommendations/recompute")
		if rec.Code != http.StatusAccepted {
			t.Errorf("code = %d, want 202", rec.Code)
		}
		if sched.triggers != 1 {
			t.Errorf("triggers = %d, want 1", sched.triggers)
		}
		var accepted models.RecomputeAccepted
		if err := json.Unmarshal(env.Data, &accepted); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !accepted.Queued {
			t.Error("queued = false, want true")
		}
	})

	t.Run("already pending is still accepted", func(t *testing.T) {
		sched := &fakeScheduler{queued: false}
		rec, env := serve(t, newTestRouter(&fakeStore{}, sched), http.MethodPost, "/api/v1/admin/recommendations/recompute")
		if rec.Code != http.StatusAccepted {
			t.Errorf("code = %d, want 202", rec.Code)
		}
		if string(env.Data) != `{"queued":false}` {
			t.Errorf("data = %s, want {\"queued\":false}", env.Data)
		}
	})

	t.Run("no scheduler", func(t *testing.T) {
		rec, env := serve(t, newTestRouter(&fakeStore{}, nil), http.MethodPost, "/api/v1/admin/recommendations/recompute")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("code = %d, want 503", rec.Code)
		}
		if env.Error == nil || env.Error.Code != models.ErrCodeServiceUnavailable {
			t.Errorf("error = %+v, want %s", env.Error, models.ErrCodeServiceUnavailable)
		}
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		rec, _ := serve(t, newTestRouter(&fakeStore{}, &fakeScheduler{}), http.MethodGet, "/api/v1/admin/recommendations/recompute")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("code = %d, want 405", rec.Code)
		}
	})
}

func TestRecomputeStatus(t *testing.T) {
	sched := &fakeScheduler{status: services.RunStatus{
		State:   services.RunStateSucceeded,
		Trigger: services.TriggerSchedule,
		RunID:   "run-9",
		Breaker: "closed",
		Result:  &recommend.RecomputeResult{Users: 10, Rows: 200},
	}}
	rec, env := serve(t, newTestRouter(&fakeStore{}, sched), http.MethodGet, "/api/v1/admin/recommendations/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}

	var st services.RunStatus
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != services.RunStateSucceeded || st.RunID != "run-9" {
		t.Errorf("status = %+v, want succeeded run-9", st)
	}
	if st.Result == nil || st.Result.Rows != 200 {
		t.Errorf("result = %+v, want 200 rows", st.Result)
	}
}

func TestNotFound(t *testing.T) {
	rec, env := serve(t, newTestRouter(&fakeStore{}, nil), http.MethodGet, "/api/v2/anything")
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("error = %+v, want %s", env.Error, models.ErrCodeNotFound)
	}
}

func TestRateLimit(t *testing.T) {
	mc := DefaultChiMiddlewareConfig()
	mc.RateLimitRequests = 2
	mc.RateLimitWindow = time.Minute
	router := NewRouter(NewHandler(&fakeStore{}, nil, time.Second), nil, NewChiMiddleware(mc))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/v1/admin/recommendations", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("third request code = %d, want 429", last.Code)
	}
	if !strings.Contains(last.Body.String(), models.ErrCodeRateLimited) {
		t.Errorf("body = %s, want %s", last.Body.String(), models.ErrCodeRateLimited)
	}

	// Health checks sit outside the limited group.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz code = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeStore{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_active_requests") {
		t.Error("metrics output does not contain api_active_requests")
	}
}
