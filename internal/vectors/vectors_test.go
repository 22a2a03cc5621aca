package vectors

import (
	"testing"

	"github.com/invaen/ricochet/internal/reqparse"
)

func mustParse(t *testing.T, raw string) *reqparse.ParsedRequest {
	t.Helper()
	req, err := reqparse.ParseString(raw)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return req
}

func TestExtractQueryParams(t *testing.T) {
	req := mustParse(t, "GET /search?q=X&page=2 HTTP/1.1\nHost: t.example\n\n")
	vs := Extract(req)

	found := map[string]string{}
	for _, v := range vs {
		if v.Location == Query {
			found[v.Name] = v.OriginalValue
		}
	}
	if found["q"] != "X" || found["page"] != "2" {
		t.Errorf("query vectors = %+v", found)
	}
}

func TestExtractInjectableHeaders(t *testing.T) {
	req := mustParse(t, "GET / HTTP/1.1\nHost: t.example\nUser-Agent: curl/8\nX-Custom: ignored\n\n")
	vs := Extract(req)

	var names []string
	for _, v := range vs {
		if v.Location == Header {
			names = append(names, v.Name)
		}
	}
	if len(names) != 1 || names[0] != "User-Agent" {
		t.Errorf("header vectors = %v, want only User-Agent", names)
	}
}

func TestExtractCookies(t *testing.T) {
	req := mustParse(t, "GET / HTTP/1.1\nHost: t.example\nCookie: session=abc; theme=dark\n\n")
	vs := Extract(req)

	found := map[string]string{}
	for _, v := range vs {
		if v.Location == Cookie {
			found[v.Name] = v.OriginalValue
		}
	}
	if found["session"] != "abc" || found["theme"] != "dark" {
		t.Errorf("cookie vectors = %+v", found)
	}
}

func TestExtractFormBody(t *testing.T) {
	req := mustParse(t, "POST /login HTTP/1.1\nHost: t.example\nContent-Type: application/x-www-form-urlencoded\nContent-Length: 17\n\nuser=bob&pass=hi")
	vs := Extract(req)

	found := map[string]string{}
	for _, v := range vs {
		if v.Location == Body {
			found[v.Name] = v.OriginalValue
		}
	}
	if found["user"] != "bob" || found["pass"] != "hi" {
		t.Errorf("body vectors = %+v", found)
	}
}

func TestExtractJSONTopLevelStringsOnly(t *testing.T) {
	req := mustParse(t, "POST /api HTTP/1.1\nHost: t.example\nContent-Type: application/json\nContent-Length: 30\n\n{\"name\":\"bob\",\"age\":30,\"ok\":true}")
	vs := Extract(req)

	var names []string
	for _, v := range vs {
		if v.Location == JSON {
			names = append(names, v.Name)
		}
	}
	if len(names) != 1 || names[0] != "name" {
		t.Errorf("json vectors = %v, want only name (string field)", names)
	}
}

func TestExtractMalformedJSONSkipped(t *testing.T) {
	req := mustParse(t, "POST /api HTTP/1.1\nHost: t.example\nContent-Type: application/json\nContent-Length: 5\n\n{bad}")
	vs := Extract(req)
	for _, v := range vs {
		if v.Location == JSON {
			t.Errorf("expected no JSON vectors from malformed body, got %+v", v)
		}
	}
}
