package server

import "testing"

func TestExtractTokenFromQName(t *testing.T) {
	tests := []struct {
		name     string
		qname    string
		wantTok  string
		wantOK   bool
	}{
		{"exact 16 hex label", "aaaaaaaaaaaaaaaa.cb.example.", "aaaaaaaaaaaaaaaa", true},
		{"uppercase label lowercased", "AAAAAAAAAAAAAAAA.cb.example.", "aaaaaaaaaaaaaaaa", true},
		{"short label rejected", "abc123.cb.example.", "", false},
		{"non-hex label rejected", "gggggggggggggggg.cb.example.", "", false},
		{"root query rejected", ".", "", false},
		{"no trailing dot still parses first label", "aaaaaaaaaaaaaaaa.cb.example", "aaaaaaaaaaaaaaaa", true},
		{"nested subdomain uses first label only", "sub.aaaaaaaaaaaaaaaa.cb.example.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractTokenFromQName(tt.qname)
			if ok != tt.wantOK || got != tt.wantTok {
				t.Errorf("extractTokenFromQName(%q) = (%q, %v), want (%q, %v)", tt.qname, got, ok, tt.wantTok, tt.wantOK)
			}
		})
	}
}
