package netfetch

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendReturns4xxAsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("nope"))
	}))
	defer srv.Close()

	resp, err := Send(srv.URL, Options{Method: "GET", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Send returned error for 404: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", resp.Status)
	}
}

func TestSendDoesNotFollowRedirectsByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/other", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := Send(srv.URL+"/start", Options{Method: "GET", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if resp.Status != http.StatusFound {
		t.Errorf("Status = %d, want 302 (redirect not followed)", resp.Status)
	}
}

func TestPrepareHeadersForBody(t *testing.T) {
	headers := map[string]string{"User-Agent": "test"}
	body := []byte("injected payload")

	got := PrepareHeadersForBody(headers, body)
	if got["Content-Length"] != "16" {
		t.Errorf("Content-Length = %q, want 16", got["Content-Length"])
	}
	if _, ok := headers["Content-Length"]; ok {
		t.Errorf("original headers map was mutated")
	}

	none := PrepareHeadersForBody(headers, nil)
	if _, ok := none["Content-Length"]; ok {
		t.Errorf("Content-Length set for nil body")
	}
}
