package token

import "testing"

func TestGenerate(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(tok) != Length {
		t.Errorf("token length = %d, want %d", len(tok), Length)
	}

	for _, c := range tok {
		if !((c >= 'a' && c <= 'f') || (c >= '0' && c <= '9')) {
			t.Errorf("token contains invalid character: %c", c)
		}
	}

	if !Valid(tok) {
		t.Errorf("generated token failed Valid: %q", tok)
	}
}

func TestGenerateUniqueness(t *testing.T) {
	const n = 200
	tokens := make(map[string]bool, n)

	for i := 0; i < n; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if tokens[tok] {
			t.Errorf("duplicate token generated: %s", tok)
		}
		tokens[tok] = true
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"exact16hex", "aaaaaaaaaaaaaaaa", true},
		{"15hex", "aaaaaaaaaaaaaaa", false},
		{"16hexUpper", "AAAAAAAAAAAAAAAA", false},
		{"16withNonHex", "aaaaaaaaaaaaaaaz", false},
		{"empty", "", false},
		{"mixed", "0123456789abcdef", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Valid(c.in); got != c.want {
				t.Errorf("Valid(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}
