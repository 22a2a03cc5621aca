// Package findings computes Finding severity and applies the
// min-severity filter the storage layer deliberately doesn't know about
// (§4.8).
package findings

import (
	"strings"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/models"
)

// order ranks severities low-to-high for min-severity comparisons.
var order = map[string]int{
	"info":   0,
	"medium": 1,
	"high":   2,
}

// Severity derives a Finding's severity from its Injection's context tag
// (I7). It is a pure, total function: the same context always yields the
// same severity, and severity is never persisted.
func Severity(context string) string {
	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "ssti"), strings.Contains(ctx, "sqli"):
		return "high"
	case strings.Contains(ctx, "xss"):
		return "medium"
	default:
		return "info"
	}
}

// Get executes the inner join (via store.RawFindings), computes severity
// for each row, and filters to severities >= minSeverity. Ordering
// (newest callback first) is preserved from the storage layer.
func Get(store *db.Store, since *float64, minSeverity string) ([]models.Finding, error) {
	raw, err := store.RawFindings(since)
	if err != nil {
		return nil, err
	}

	threshold, ok := order[minSeverity]
	if !ok {
		threshold = order["info"]
	}

	out := make([]models.Finding, 0, len(raw))
	for _, f := range raw {
		f.Severity = Severity(f.Injection.Context)
		if order[f.Severity] >= threshold {
			out = append(out, f)
		}
	}
	return out, nil
}
