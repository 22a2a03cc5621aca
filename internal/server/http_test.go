package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/models"
)

func newTestListener(t *testing.T) (*HTTPListener, *db.Store) {
	t.Helper()
	sdb, err := db.Open(filepath.Join(t.TempDir(), "ricochet.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	store := db.NewStore(sdb)
	return NewHTTPListener(store, zap.NewNop()), store
}

func TestHTTPListenerAlwaysReturns200(t *testing.T) {
	listener, _ := newTestListener(t)

	paths := []string{"/", "/aaaaaaaaaaaaaaaa", "/callback/short", "/x/y/z"}
	methods := []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions}

	for _, p := range paths {
		for _, m := range methods {
			req := httptest.NewRequest(m, p, nil)
			rec := httptest.NewRecorder()
			listener.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("method=%s path=%s status=%d, want 200", m, p, rec.Code)
			}
			if rec.Body.String() != "OK" {
				t.Errorf("method=%s path=%s body=%q, want OK", m, p, rec.Body.String())
			}
		}
	}
}

func TestHTTPListenerRecordsKnownToken(t *testing.T) {
	listener, store := newTestListener(t)
	tok := "aaaaaaaaaaaaaaaa"
	if err := store.RecordInjection(models.Injection{Token: tok, TargetURL: "http://t.example", Parameter: "q", Payload: "x", InjectedAt: 1}); err != nil {
		t.Fatalf("RecordInjection: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/"+tok, nil)
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	listener.ServeHTTP(rec, req)

	cbs, err := store.GetCallbacksForInjection(tok)
	if err != nil {
		t.Fatalf("GetCallbacksForInjection: %v", err)
	}
	if len(cbs) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(cbs))
	}
	if cbs[0].SourceIP != "10.0.0.1" {
		t.Errorf("SourceIP = %q, want 10.0.0.1", cbs[0].SourceIP)
	}
}

func TestHTTPListenerUnknownTokenNotPersisted(t *testing.T) {
	listener, store := newTestListener(t)

	req := httptest.NewRequest(http.MethodGet, "/ffffffffffffffff", nil)
	rec := httptest.NewRecorder()
	listener.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	cbs, err := store.GetCallbacksForInjection("ffffffffffffffff")
	if err != nil {
		t.Fatalf("GetCallbacksForInjection: %v", err)
	}
	if len(cbs) != 0 {
		t.Errorf("expected no callback persisted for unknown token, got %d", len(cbs))
	}
}

func TestExtractTokenFromPathRejectsShortAndUppercase(t *testing.T) {
	cases := []struct {
		path string
		ok   bool
	}{
		{"/aaaaaaaaaaaaaaaa", true},
		{"/aaaaaaaaaaaaaaa", false},
		{"/AAAAAAAAAAAAAAAA", false},
		{"/", false},
		{"/callback/aaaaaaaaaaaaaaaa", true},
	}
	for _, c := range cases {
		_, ok := extractTokenFromPath(c.path)
		if ok != c.ok {
			t.Errorf("extractTokenFromPath(%q) ok=%v, want %v", c.path, ok, c.ok)
		}
	}
}
