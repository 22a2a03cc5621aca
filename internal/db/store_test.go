package db

import (
	"path/filepath"
	"testing"

	"github.com/invaen/ricochet/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ricochet.db")
	sdb, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	return NewStore(sdb)
}

func TestRecordAndGetInjection(t *testing.T) {
	s := openTestStore(t)
	inj := models.Injection{
		Token:      "aaaaaaaaaaaaaaaa",
		TargetURL:  "http://t.example/?q=X",
		Parameter:  "q",
		Payload:    "<img src=\"http://cb.example/aaaaaaaaaaaaaaaa\">",
		Context:    "",
		InjectedAt: 1000.0,
	}
	if err := s.RecordInjection(inj); err != nil {
		t.Fatalf("RecordInjection: %v", err)
	}

	got, err := s.GetInjection(inj.Token)
	if err != nil {
		t.Fatalf("GetInjection: %v", err)
	}
	if got == nil {
		t.Fatalf("GetInjection returned nil")
	}
	if *got != inj {
		t.Errorf("GetInjection = %+v, want %+v", *got, inj)
	}
}

func TestRecordInjectionDuplicateToken(t *testing.T) {
	s := openTestStore(t)
	inj := models.Injection{Token: "bbbbbbbbbbbbbbbb", TargetURL: "http://t.example", Parameter: "q", Payload: "x", InjectedAt: 1.0}
	if err := s.RecordInjection(inj); err != nil {
		t.Fatalf("first RecordInjection: %v", err)
	}
	if err := s.RecordInjection(inj); err == nil {
		t.Fatalf("expected duplicate token error, got nil")
	}
}

func TestRecordCallbackUnknownToken(t *testing.T) {
	s := openTestStore(t)
	recorded, err := s.RecordCallback("ffffffffffffffff", "10.0.0.1", "/ffffffffffffffff", "{}", nil, 5.0)
	if err != nil {
		t.Fatalf("RecordCallback: %v", err)
	}
	if recorded {
		t.Errorf("RecordCallback for unknown token returned true")
	}

	cbs, err := s.GetCallbacksForInjection("ffffffffffffffff")
	if err != nil {
		t.Fatalf("GetCallbacksForInjection: %v", err)
	}
	if len(cbs) != 0 {
		t.Errorf("expected no callbacks stored for unknown token, got %d", len(cbs))
	}
}

func TestRecordCallbackKnownToken(t *testing.T) {
	s := openTestStore(t)
	inj := models.Injection{Token: "cccccccccccccccc", TargetURL: "http://t.example", Parameter: "q", Payload: "x", InjectedAt: 100.0}
	if err := s.RecordInjection(inj); err != nil {
		t.Fatalf("RecordInjection: %v", err)
	}

	recorded, err := s.RecordCallback(inj.Token, "10.0.0.1", "/"+inj.Token, `{"User-Agent":"curl"}`, nil, 105.0)
	if err != nil {
		t.Fatalf("RecordCallback: %v", err)
	}
	if !recorded {
		t.Fatalf("RecordCallback for known token returned false")
	}

	cbs, err := s.GetCallbacksForInjection(inj.Token)
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

func TestRawFindingsJoinAndOrder(t *testing.T) {
	s := openTestStore(t)
	inj := models.Injection{Token: "dddddddddddddddd", TargetURL: "http://t.example", Parameter: "q", Payload: "x", Context: "sqli:mssql", InjectedAt: 10.0}
	if err := s.RecordInjection(inj); err != nil {
		t.Fatalf("RecordInjection: %v", err)
	}
	if _, err := s.RecordCallback(inj.Token, "1.1.1.1", "/"+inj.Token, "{}", nil, 15.0); err != nil {
		t.Fatalf("RecordCallback: %v", err)
	}
	if _, err := s.RecordCallback(inj.Token, "2.2.2.2", "/"+inj.Token, "{}", nil, 20.0); err != nil {
		t.Fatalf("RecordCallback: %v", err)
	}

	findings, err := s.RawFindings(nil)
	if err != nil {
		t.Fatalf("RawFindings: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings (one per callback), got %d", len(findings))
	}
	if findings[0].Callback.ReceivedAt < findings[1].Callback.ReceivedAt {
		t.Errorf("findings not ordered newest-first: %v then %v", findings[0].Callback.ReceivedAt, findings[1].Callback.ReceivedAt)
	}
	if findings[0].DelaySeconds < 0 {
		t.Errorf("DelaySeconds = %v, want >= 0", findings[0].DelaySeconds)
	}
}
