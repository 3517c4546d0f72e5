package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/storage/models"
	ws "github.com/roster-scheduler/backend/internal/websocket"
)

func newStatusDB(t *testing.T, logger *slog.Logger) *storage.DB {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "status.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db, logger); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

func TestStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := newStatusDB(t, logger)

	owner := &models.Owner{Email: "owner@example.com", PasswordHash: "x", FirstName: "Owner", Active: true}
	if err := storage.NewOwnerRepository(db).Create(context.Background(), owner); err != nil {
		t.Fatalf("creating owner: %v", err)
	}

	rec := httptest.NewRecorder()
	Status(db, ws.NewHub(logger), "test", logger)(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var body struct {
		Data StatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Data.OwnersCount != 1 || body.Data.SchemaVersion != 1 || body.Data.Version != "test" {
		t.Errorf("data = %+v", body.Data)
	}
}

func TestStatusStoreFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := newStatusDB(t, logger)

	if _, err := db.Exec("DROP TABLE events"); err != nil {
		t.Fatalf("dropping events: %v", err)
	}

	rec := httptest.NewRecorder()
	Status(db, ws.NewHub(logger), "test", logger)(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500; body = %s", rec.Code, rec.Body)
	}

	var body middleware.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Success || body.Error != middleware.ErrInternalError {
		t.Errorf("envelope = %+v", body)
	}
}
