package injector

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/invaen/ricochet/internal/models"
	"github.com/invaen/ricochet/internal/reqparse"
	"github.com/invaen/ricochet/internal/vectors"
)

type fakeStore struct {
	recorded []models.Injection
}

func (f *fakeStore) RecordInjection(inj models.Injection) error {
	f.recorded = append(f.recorded, inj)
	return nil
}

func TestSubstituteCallbackAllSpellings(t *testing.T) {
	cases := []string{
		`<img src="{{CALLBACK}}">`,
		`<img src="{{callback}}">`,
		`<img src="{CALLBACK}">`,
		`<img src="${CALLBACK}">`,
	}
	for _, payload := range cases {
		out := SubstituteCallback(payload, "http://cb.example", "aaaaaaaaaaaaaaaa")
		want := `<img src="http://cb.example/aaaaaaaaaaaaaaaa">`
		if out != want {
			t.Errorf("SubstituteCallback(%q) = %q, want %q", payload, out, want)
		}
	}
}

func TestSubstituteCallbackWhitespaceNotMatched(t *testing.T) {
	payload := `<img src="{{ CALLBACK }}">`
	out := SubstituteCallback(payload, "http://cb.example", "aaaaaaaaaaaaaaaa")
	if out != payload {
		t.Errorf("expected literal placeholder with whitespace to be untouched, got %q", out)
	}
}

func TestInjectVectorRecordsBeforeSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &fakeStore{}
	inj := New(store, "http://cb.example")

	req, err := reqparse.ParseString("GET /?q=X HTTP/1.1\nHost: " + srv.Listener.Addr().String() + "\n\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	result := inj.InjectVector(req, vectors.Vector{Location: vectors.Query, Name: "q", OriginalValue: "X"}, `{{CALLBACK}}`, false, false)
	if len(store.recorded) != 1 {
		t.Fatalf("expected 1 injection recorded, got %d", len(store.recorded))
	}
	if !result.Success {
		t.Errorf("InjectVector not successful: %+v", result)
	}
	if result.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", result.Status)
	}
}

func TestInjectVectorDryRunSkipsSend(t *testing.T) {
	store := &fakeStore{}
	inj := New(store, "http://cb.example")

	req, err := reqparse.ParseString("GET /?q=X HTTP/1.1\nHost: 127.0.0.1:1\n\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	result := inj.InjectVector(req, vectors.Vector{Location: vectors.Query, Name: "q", OriginalValue: "X"}, `{{CALLBACK}}`, false, true)
	if len(store.recorded) != 1 {
		t.Fatalf("expected injection recorded even in dry-run, got %d", len(store.recorded))
	}
	if !result.DryRun {
		t.Errorf("expected DryRun result")
	}
}
