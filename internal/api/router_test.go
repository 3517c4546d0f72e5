package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/auth"
	"github.com/roster-scheduler/backend/internal/calendar"
	"github.com/roster-scheduler/backend/internal/service"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/websocket"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

// envelope is the decoded form of both success and error responses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db, logger); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	hub := websocket.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	owners := storage.NewOwnerRepository(db)
	contacts := storage.NewContactRepository(db)
	events := storage.NewEventRepository(db)
	authz := service.NewAuthorizer(contacts, events)
	opts := service.Options{Publisher: websocket.NewBroadcaster(hub, logger), Logger: logger}

	return NewRouter(Dependencies{
		DB:       db,
		Hub:      hub,
		Auth:     service.NewAuthService(owners, tokens, auth.NewHasher(bcrypt.MinCost), opts),
		Contacts: service.NewContactService(contacts, events, authz, opts),
		Events:   service.NewEventService(events, authz, opts),
		Exporter: calendar.NewExporter("test.local"),
		Logger:   logger,
		Version:  "test",
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decoding response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func register(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     email,
		"password":  "secret123",
		"firstName": "Test",
		"lastName":  "Owner",
	})
	expectStatus(t, rec, http.StatusCreated)

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil || result.Token == "" {
		t.Fatalf("register returned no token: %s", env.Data)
	}
	return result.Token
}

func createContact(t *testing.T, h http.Handler, token, email string) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/users", token, map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     email,
	})
	expectStatus(t, rec, http.StatusCreated)

	var c struct {
		ID string `json:"id"`
	}
	json.Unmarshal(env.Data, &c)
	return c.ID
}

// slot returns a one hour interval starting at hour on a fixed future day.
func slot(hour int) (string, string) {
	start := time.Date(2099, 6, 1, hour, 0, 0, 0, time.UTC)
	return start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339)
}

func createEvent(t *testing.T, h http.Handler, token, contactID string, hour int) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	start, end := slot(hour)
	return do(t, h, http.MethodPost, "/api/events", token, map[string]string{
		"title":     "Planning session",
		"startDate": start,
		"endDate":   end,
		"userId":    contactID,
	})
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	rec, env := do(t, h, http.MethodGet, "/api/health", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !env.Success {
		t.Errorf("success = false")
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t)

	rec, env := do(t, h, http.MethodGet, "/api/nope", "", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if env.Success || env.Error != middleware.ErrNotFound {
		t.Errorf("envelope = %+v", env)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	token := register(t, h, "owner@example.com")

	rec, _ := do(t, h, http.MethodPatch, "/api/events", token, nil)
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/events"},
		{http.MethodGet, "/api/events/export.ics"},
		{http.MethodPost, "/api/events"},
	}
	for _, p := range paths {
		rec, env := do(t, h, p.method, p.path, "", nil)
		expectStatus(t, rec, http.StatusUnauthorized)
		if env.Error != middleware.ErrUnauthorized {
			t.Errorf("%s %s: error = %q", p.method, p.path, env.Error)
		}
	}

	rec, _ := do(t, h, http.MethodGet, "/api/events", "not-a-token", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestLogin(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "owner@example.com")

	rec, env := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "Owner@Example.com", "password": "secret123",
	})
	expectStatus(t, rec, http.StatusOK)
	if !env.Success {
		t.Error("login failed")
	}

	rec, env = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "wrong-password",
	})
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Message != "Invalid email or password" {
		t.Errorf("message = %q", env.Message)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "owner@example.com", "password": "secret123", "firstName": "Dup", "lastName": "Owner",
	})
	expectStatus(t, rec, http.StatusConflict)
}

func TestInvalidBody(t *testing.T) {
	h := newTestServer(t)
	token := register(t, h, "owner@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestValidationErrors(t *testing.T) {
	h := newTestServer(t)
	token := register(t, h, "owner@example.com")

	rec, env := do(t, h, http.MethodPost, "/api/users", token, map[string]string{
		"firstName": "A",
		"lastName":  "Lovelace",
		"email":     "not-an-email",
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error != middleware.ErrValidation {
		t.Errorf("error = %q", env.Error)
	}
	fields := map[string]bool{}
	for _, e := range env.Errors {
		fields[e.Field] = true
	}
	if !fields["firstName"] || !fields["email"] {
		t.Errorf("errors = %+v, want firstName and email", env.Errors)
	}
}

func TestEventLifecycle(t *testing.T) {
	h := newTestServer(t)
	token := register(t, h, "owner@example.com")
	contactID := createContact(t, h, token, "ada@example.com")

	rec, env := createEvent(t, h, token, contactID, 10)
	expectStatus(t, rec, http.StatusCreated)
	var ev struct {
		ID   string `json:"id"`
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	json.Unmarshal(env.Data, &ev)
	if ev.User.ID != contactID {
		t.Errorf("event contact = %q, want %q", ev.User.ID, contactID)
	}

	rec, env = createEvent(t, h, token, contactID, 10)
	expectStatus(t, rec, http.StatusConflict)
	if env.Message != "Event time overlaps with existing event" {
		t.Errorf("message = %q", env.Message)
	}

	// Back to back is fine.
	rec, _ = createEvent(t, h, token, contactID, 11)
	expectStatus(t, rec, http.StatusCreated)

	rec, env = do(t, h, http.MethodGet, "/api/events?userId="+contactID, token, nil)
	expectStatus(t, rec, http.StatusOK)
	var list []json.RawMessage
	json.Unmarshal(env.Data, &list)
	if len(list) != 2 {
		t.Fatalf("listed %d events, want 2", len(list))
	}

	start, end := slot(14)
	rec, _ = do(t, h, http.MethodPut, "/api/events/"+ev.ID, token, map[string]string{
		"title": "Moved session", "startDate": start, "endDate": end, "userId": contactID,
	})
	expectStatus(t, rec, http.StatusOK)

	rec, _ = do(t, h, http.MethodDelete, "/api/events/"+ev.ID, token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec, _ = do(t, h, http.MethodGet, "/api/events/"+ev.ID, token, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestExportICS(t *testing.T) {
	h := newTestServer(t)
	token := register(t, h, "owner@example.com")
	contactID := createContact(t, h, token, "ada@example.com")

	rec, _ := createEvent(t, h, token, contactID, 9)
	expectStatus(t, rec, http.StatusCreated)

	rec, _ = do(t, h, http.MethodGet, "/api/events/export.ics", token, nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != calendar.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VEVENT") || !strings.Contains(body, "SUMMARY:Planning session") {
		t.Errorf("export missing event:\n%s", body)
	}
}

func TestOwnerIsolation(t *testing.T) {
	h := newTestServer(t)
	alice := register(t, h, "alice@example.com")
	bob := register(t, h, "bob@example.com")

	contactID := createContact(t, h, alice, "ada@example.com")
	rec, env := createEvent(t, h, alice, contactID, 10)
	expectStatus(t, rec, http.StatusCreated)
	var ev struct {
		ID string `json:"id"`
	}
	json.Unmarshal(env.Data, &ev)

	start, end := slot(15)
	requests := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/users/" + contactID, nil},
		{http.MethodPut, "/api/users/" + contactID, map[string]string{"firstName": "Eve", "lastName": "Mallory", "email": "eve@example.com"}},
		{http.MethodDelete, "/api/users/" + contactID, nil},
		{http.MethodGet, "/api/events/" + ev.ID, nil},
		{http.MethodPut, "/api/events/" + ev.ID, map[string]string{"title": "Hijacked", "startDate": start, "endDate": end, "userId": contactID}},
		{http.MethodDelete, "/api/events/" + ev.ID, nil},
		{http.MethodPost, "/api/events", map[string]string{"title": "Intrusion", "startDate": start, "endDate": end, "userId": contactID}},
	}
	for _, r := range requests {
		rec, _ := do(t, h, r.method, r.path, bob, r.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s as other owner: status = %d, want 404", r.method, r.path, rec.Code)
		}
	}

	rec, env = do(t, h, http.MethodGet, "/api/users", bob, nil)
	expectStatus(t, rec, http.StatusOK)
	if string(env.Data) != "[]" {
		t.Errorf("other owner sees contacts: %s", env.Data)
	}

	// Alice's data is untouched.
	rec, _ = do(t, h, http.MethodGet, "/api/events/"+ev.ID, alice, nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestDeleteContactCascades(t *testing.T) {
	h := newTestServer(t)
	token := register(t, h, "owner@example.com")
	contactID := createContact(t, h, token, "ada@example.com")

	for _, hour := range []int{9, 11, 13} {
		rec, _ := createEvent(t, h, token, contactID, hour)
		expectStatus(t, rec, http.StatusCreated)
	}

	rec, _ := do(t, h, http.MethodDelete, "/api/users/"+contactID, token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec, env := do(t, h, http.MethodGet, "/api/events", token, nil)
	expectStatus(t, rec, http.StatusOK)
	if string(env.Data) != "[]" {
		t.Errorf("events remain after contact delete: %s", env.Data)
	}
}
