package suggest

import "testing"

func TestForFuzzyMatchesUnderscoredParam(t *testing.T) {
	s := For("user_name")
	if len(s) == 0 {
		t.Fatal("expected suggestions for user_name")
	}
	if s[0].Likelihood != "high" {
		t.Errorf("expected highest-likelihood suggestion first, got %q", s[0].Likelihood)
	}
}

func TestForUnknownParameterReturnsEmpty(t *testing.T) {
	s := For("zzz_unmatched_field")
	if len(s) != 0 {
		t.Errorf("expected no suggestions, got %d", len(s))
	}
}

func TestForDeduplicatesByLocation(t *testing.T) {
	s := For("email")
	seen := map[string]bool{}
	for _, sug := range s {
		if seen[sug.Location] {
			t.Fatalf("duplicate location %q", sug.Location)
		}
		seen[sug.Location] = true
	}
}
