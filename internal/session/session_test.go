package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soleshopapp/soleshop/internal/checkout"
)

func TestManager_CreateAndGetSession(t *testing.T) {
	t.Parallel()

	manager := NewManager(NewMemoryStore(), false)
	rec := httptest.NewRecorder()

	sessionID, data, err := manager.CreateSession(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sessionID == "" || data == nil {
		t.Fatal("expected session id and data")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cookieName {
		t.Fatalf("expected %s cookie, got %+v", cookieName, cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	gotID, gotData, err := manager.GetSession(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != sessionID || gotData.Revision != 0 {
		t.Errorf("unexpected session: id=%s revision=%d", gotID, gotData.Revision)
	}
}

func TestManager_CommitBumpsRevision(t *testing.T) {
	t.Parallel()

	manager := NewManager(NewMemoryStore(), false)
	sessionID, data, err := manager.CreateSession(context.Background(), httptest.NewRecorder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data.CartLines = []checkout.LineItem{{Key: "p1", ProductID: 1, UnitPrice: 10, Quantity: 1}}
	if err := manager.Commit(context.Background(), sessionID, data, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, ok := manager.Load(context.Background(), sessionID)
	if !ok {
		t.Fatal("expected session to exist")
	}
	if stored.Revision != 1 {
		t.Errorf("expected revision 1, got %d", stored.Revision)
	}
	if len(stored.CartLines) != 1 {
		t.Errorf("expected committed cart line, got %+v", stored.CartLines)
	}
}

func TestManager_CommitRejectsStaleRevision(t *testing.T) {
	t.Parallel()

	manager := NewManager(NewMemoryStore(), false)
	sessionID, data, err := manager.CreateSession(context.Background(), httptest.NewRecorder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A slow caller reads revision 0, then someone else commits first.
	if err := manager.Commit(context.Background(), sessionID, data, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stale := &Data{CartLines: []checkout.LineItem{{Key: "p9", ProductID: 9, UnitPrice: 5, Quantity: 1}}}
	if err := manager.Commit(context.Background(), sessionID, stale, 0); !errors.Is(err, ErrSessionSuperseded) {
		t.Fatalf("expected ErrSessionSuperseded, got %v", err)
	}

	stored, _ := manager.Load(context.Background(), sessionID)
	if len(stored.CartLines) != 0 {
		t.Errorf("stale commit must not overwrite newer state, got %+v", stored.CartLines)
	}
}

func TestManager_CommitStoresCopy(t *testing.T) {
	t.Parallel()

	manager := NewManager(NewMemoryStore(), false)
	sessionID, data, err := manager.CreateSession(context.Background(), httptest.NewRecorder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data.CartLines = []checkout.LineItem{{Key: "p1", ProductID: 1, UnitPrice: 10, Quantity: 1}}
	if err := manager.Commit(context.Background(), sessionID, data, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	data.CartLines[0].Quantity = 99
	stored, _ := manager.Load(context.Background(), sessionID)
	if stored.CartLines[0].Quantity != 1 {
		t.Errorf("store must hold its own copy, got quantity %d", stored.CartLines[0].Quantity)
	}
}

func TestManager_DestroySession(t *testing.T) {
	t.Parallel()

	manager := NewManager(NewMemoryStore(), false)
	rec := httptest.NewRecorder()
	sessionID, _, err := manager.CreateSession(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	destroyRec := httptest.NewRecorder()
	if err := manager.DestroySession(context.Background(), destroyRec, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := manager.Load(context.Background(), sessionID); ok {
		t.Error("destroyed session must not be loadable")
	}

	cookies := destroyRec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Errorf("expected expired cookie, got %+v", cookies)
	}
}

func TestMiddleware_CreatesSessionWhenMissing(t *testing.T) {
	t.Parallel()

	manager := NewManager(NewMemoryStore(), false)

	var gotID string
	var gotData *Data
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = IDFromContext(r.Context())
		gotData = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if gotID == "" || gotData == nil {
		t.Fatal("middleware must create a session for a cookieless request")
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Errorf("expected session cookie to be set, got %+v", rec.Result().Cookies())
	}
}

func TestMiddleware_ReusesExistingSession(t *testing.T) {
	t.Parallel()

	manager := NewManager(NewMemoryStore(), false)
	rec := httptest.NewRecorder()
	sessionID, _, err := manager.CreateSession(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var gotID string
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = IDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != sessionID {
		t.Errorf("expected session %s, got %s", sessionID, gotID)
	}
}
