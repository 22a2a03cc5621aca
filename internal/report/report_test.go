package report

import (
	"strings"
	"testing"

	"github.com/invaen/ricochet/internal/models"
)

func TestRenderSQLiUsesSQLiTemplate(t *testing.T) {
	f := models.Finding{
		Injection: models.Injection{Token: "aaaaaaaaaaaaaaaa", TargetURL: "http://t.example/x", Parameter: "q", Payload: "1' OR SLEEP({{CALLBACK}})", Context: "sqli-blind"},
		Callback:  models.Callback{ReceivedAt: 1700000000},
		Severity:  "high",
	}
	out, err := Render(f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "SQL Injection") {
		t.Errorf("expected SQLi template content, got: %s", out)
	}
	if !strings.Contains(out, "aaaaaaaaaaaaaaaa") {
		t.Errorf("expected correlation id in report")
	}
}

func TestRenderUnknownContextUsesGenericTemplate(t *testing.T) {
	f := models.Finding{
		Injection: models.Injection{Token: "bbbbbbbbbbbbbbbb", TargetURL: "http://t.example", Parameter: "q", Context: "unknown"},
		Callback:  models.Callback{},
		Severity:  "info",
	}
	out, err := Render(f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Second-order out-of-band interaction") {
		t.Errorf("expected generic template content, got: %s", out)
	}
}
