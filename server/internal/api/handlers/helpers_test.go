package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/server/internal/database"
	"github.com/dobriak/mini-ipam/server/internal/service"
)

type testServer struct {
	router *gin.Engine
	db     *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	services := service.New(db, zap.NewNop())
	ch := NewCollectionHandler(services.Collections, services.Nodes)
	nh := NewNodeHandler(services.Nodes)
	lh := NewLookupHandler(services.Lookup)
	hh := NewHealthHandler(db, "test-instance")

	r := gin.New()
	r.GET("/health/live", hh.Liveness)
	r.GET("/health/ready", hh.Readiness)
	v1 := r.Group("/api/v1")
	v1.GET("/collections", ch.List)
	v1.POST("/collections", ch.Create)
	v1.GET("/collections/:id", ch.Get)
	v1.PUT("/collections/:id", ch.Update)
	v1.DELETE("/collections/:id", ch.Delete)
	v1.GET("/collections/:id/info", ch.Info)
	v1.GET("/collections/:id/nodes", ch.Nodes)
	v1.GET("/nodes", nh.List)
	v1.POST("/nodes", nh.Create)
	v1.GET("/nodes/:id", nh.Get)
	v1.PUT("/nodes/:id", nh.Update)
	v1.DELETE("/nodes/:id", nh.Delete)
	v1.GET("/lookup", lh.Lookup)

	return &testServer{router: r, db: db}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code, message string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (%s)", w.Code, status, w.Body.String())
	}
	body := decode[models.ErrorResponse](t, w)
	if body.Code != code || (message != "" && body.Error != message) {
		t.Fatalf("error = %+v, want code %s message %q", body, code, message)
	}
}

func (s *testServer) createCollection(t *testing.T, name, cidr string) models.Collection {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/collections", `{"name":"`+name+`","cidr":"`+cidr+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create collection %s: %d %s", cidr, w.Code, w.Body.String())
	}
	return *decode[models.MutationResponse[models.Collection]](t, w).Data
}
