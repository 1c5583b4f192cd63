// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reco/internal/config"
	"github.com/tomtom215/reco/internal/database"
	"github.com/tomtom215/reco/internal/models"
	"github.com/tomtom215/reco/internal/recommend"
)

// newCatalogRouter serves the catalog endpoints from an in-memory SQLite
// database holding two users, two items and two ratings.
func newCatalogRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Driver:       database.DriverSQLite,
		Path:         database.MemoryPath,
		QueryTimeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	err = db.ReplaceDataset(context.Background(), &models.Dataset{
		Users: []int64{1, 2},
		Items: []models.Item{
			{ID: 10, ExternalID: 100, Title: "Toy Story (1995)", Genres: []string{"Animation"}},
			{ID: 20, ExternalID: 200, Title: "Heat (1995)", Genres: []string{"Action"}},
		},
		Ratings: []recommend.Rating{
			{UserID: 1, ItemID: 10, Value: 5},
			{UserID: 2, ItemID: 20, Value: 3},
		},
	})
	if err != nil {
		t.Fatalf("ReplaceDataset() error = %v", err)
	}

	mc := DefaultChiMiddlewareConfig()
	mc.RateLimitDisabled = true
	return NewRouter(NewHandler(&fakeStore{}, nil, time.Second), NewCatalogHandler(db, time.Second), NewChiMiddleware(mc))
}

// send issues a request with an optional JSON body and decodes the envelope.
func send(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (body %q)", method, target, err, rec.Body.String())
	}
	return rec, env
}

func TestCatalogReads(t *testing.T) {
	router := newCatalogRouter(t)

	tests := []struct {
		target   string
		wantCode int
		wantLen  int // -1 for a single object
	}{
		{target: "/api/v1/users", wantCode: http.StatusOK, wantLen: 2},
		{target: "/api/v1/users?limit=1", wantCode: http.StatusOK, wantLen: 1},
		{target: "/api/v1/users?limit=0", wantCode: http.StatusOK, wantLen: 2},
		{target: "/api/v1/users/1", wantCode: http.StatusOK, wantLen: -1},
		{target: "/api/v1/users/1/ratings", wantCode: http.StatusOK, wantLen: 1},
		{target: "/api/v1/items", wantCode: http.StatusOK, wantLen: 2},
		{target: "/api/v1/items/20", wantCode: http.StatusOK, wantLen: -1},
		{target: "/api/v1/items/20/ratings", wantCode: http.StatusOK, wantLen: 1},
		{target: "/api/v1/items/30/ratings", wantCode: http.StatusOK, wantLen: 0},
		{target: "/api/v1/ratings", wantCode: http.StatusOK, wantLen: 2},
		{target: "/api/v1/ratings/2", wantCode: http.StatusOK, wantLen: -1},
		{target: "/api/v1/users/9", wantCode: http.StatusNotFound},
		{target: "/api/v1/items/9", wantCode: http.StatusNotFound},
		{target: "/api/v1/ratings/9", wantCode: http.StatusNotFound},
		{target: "/api/v1/users/abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, env := send(t, router, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if tt.wantLen < 0 {
				if !strings.HasPrefix(string(env.Data), "{") {
					t.Errorf("data = %s, want an object", env.Data)
				}
				return
			}
			var list []json.RawMessage
			if err := json.Unmarshal(env.Data, &list); err != nil {
				t.Fatalf("decode list: %v", err)
			}
			if len(list) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(list), tt.wantLen)
			}
		})
	}
}

func TestCatalogCreate(t *testing.T) {
	router := newCatalogRouter(t)

	rec, env := send(t, router, http.MethodPost, "/api/v1/users", `{"username":"alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user code = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var user models.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatal(err)
	}
	if user.ID != 3 || user.Username != "alice" {
		t.Errorf("user = %+v, want id 3 alice", user)
	}

	rec, env = send(t, router, http.MethodPost, "/api/v1/items", `{"title":"Alien (1979)","genres":["Horror"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item code = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var item models.Item
	if err := json.Unmarshal(env.Data, &item); err != nil {
		t.Fatal(err)
	}
	if item.ID != 21 || item.Title != "Alien (1979)" {
		t.Errorf("item = %+v, want id 21", item)
	}

	rec, env = send(t, router, http.MethodPost, "/api/v1/ratings/21", `{"user_id":3,"rating":4.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("rate item code = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var rating models.RatingRecord
	if err := json.Unmarshal(env.Data, &rating); err != nil {
		t.Fatal(err)
	}
	if rating.ID != 3 || rating.UserID != 3 || rating.ItemID != 21 || rating.Rating != 4.5 {
		t.Errorf("rating = %+v, want id 3 user 3 item 21 value 4.5", rating)
	}

	rec, env = send(t, router, http.MethodPut, "/api/v1/ratings/3?rating=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update rating code = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, &rating); err != nil {
		t.Fatal(err)
	}
	if rating.Rating != 2 {
		t.Errorf("updated rating = %v, want 2", rating.Rating)
	}
}

func TestCatalogWriteErrors(t *testing.T) {
	router := newCatalogRouter(t)

	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantCode int
		wantErr  string
	}{
		{"short username", http.MethodPost, "/api/v1/users", `{"username":"bob"}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"missing username", http.MethodPost, "/api/v1/users", `{}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"malformed body", http.MethodPost, "/api/v1/users", `{"username":`, http.StatusBadRequest, models.ErrCodeValidation},
		{"missing title", http.MethodPost, "/api/v1/items", `{"genres":["Drama"]}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"rating above scale", http.MethodPost, "/api/v1/ratings/10", `{"user_id":2,"rating":6}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"rating below scale", http.MethodPost, "/api/v1/ratings/10", `{"user_id":2,"rating":0}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"unknown item", http.MethodPost, "/api/v1/ratings/99", `{"user_id":2,"rating":3}`, http.StatusNotFound, models.ErrCodeNotFound},
		{"unknown user", http.MethodPost, "/api/v1/ratings/10", `{"user_id":99,"rating":3}`, http.StatusNotFound, models.ErrCodeNotFound},
		{"already rated", http.MethodPost, "/api/v1/ratings/10", `{"user_id":1,"rating":3}`, http.StatusConflict, models.ErrCodeConflict},
		{"update unknown rating", http.MethodPut, "/api/v1/ratings/99?rating=3", "", http.StatusNotFound, models.ErrCodeNotFound},
		{"update without value", http.MethodPut, "/api/v1/ratings/1", "", http.StatusBadRequest, models.ErrCodeValidation},
		{"update out of scale", http.MethodPut, "/api/v1/ratings/1?rating=9", "", http.StatusBadRequest, models.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := send(t, router, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantErr)
			}
		})
	}

	t.Run("duplicate username", func(t *testing.T) {
		if rec, _ := send(t, router, http.MethodPost, "/api/v1/users", `{"username":"carol"}`); rec.Code != http.StatusCreated {
			t.Fatalf("first create code = %d, want 201", rec.Code)
		}
		rec, env := send(t, router, http.MethodPost, "/api/v1/users", `{"username":"carol"}`)
		if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != models.ErrCodeConflict {
			t.Errorf("second create = %d %+v, want 409 CONFLICT", rec.Code, env.Error)
		}
	})
}

func TestCatalogRoutesNeedHandler(t *testing.T) {
	rec, env := serve(t, newTestRouter(&fakeStore{}, nil), http.MethodGet, "/api/v1/items")
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404 without a catalog handler", rec.Code)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("error = %+v, want %s", env.Error, models.ErrCodeNotFound)
	}
}

func TestUserRecompute(t *testing.T) {
	t.Run("queues a full run", func(t *testing.T) {
		sched := &fakeScheduler{queued: true}
		rec, env := serve(t, newTestRouter(&fakeStore{}, sched), http.MethodPost, "/api/v1/users/7/recommendations/recompute")
		if rec.Code != http.StatusAccepted {
			t.Errorf("code = %d, want 202", rec.Code)
		}
		if sched.triggers != 1 {
			t.Errorf("triggers = %d, want 1", sched.triggers)
		}
		if string(env.Data) != `{"queued":true}` {
			t.Errorf("data = %s, want {\"queued\":true}", env.Data)
		}
	})

	t.Run("invalid user", func(t *testing.T) {
		sched := &fakeScheduler{queued: true}
		rec, _ := serve(t, newTestRouter(&fakeStore{}, sched), http.MethodPost, "/api/v1/users/x/recommendations/recompute")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400", rec.Code)
		}
		if sched.triggers != 0 {
			t.Errorf("triggers = %d, want 0", sched.triggers)
		}
	})

	t.Run("no scheduler", func(t *testing.T) {
		rec, _ := serve(t, newTestRouter(&fakeStore{}, nil), http.MethodPost, "/api/v1/users/7/recommendations/recompute")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("code = %d, want 503", rec.Code)
		}
	})
}
