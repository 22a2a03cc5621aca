// Package vectors enumerates injectable positions within a parsed HTTP
// request: query parameters, security-relevant headers, cookies,
// url-encoded body fields, and top-level JSON string body fields (§4.4,
// §2 item 5).
package vectors

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/invaen/ricochet/internal/reqparse"
)

// Location identifies where a Vector lives within the request.
type Location string

const (
	Query  Location = "query"
	Header Location = "header"
	Cookie Location = "cookie"
	Body   Location = "body"
	JSON   Location = "json"
)

// Vector is a single injectable parameter location.
type Vector struct {
	Location      Location
	Name          string
	OriginalValue string
}

// injectableHeaders lists the headers commonly trusted or logged by
// backends, making them worth probing even without a visible reflection.
var injectableHeaders = map[string]bool{
	"user-agent":                 true,
	"referer":                    true,
	"x-forwarded-for":            true,
	"x-forwarded-host":           true,
	"x-custom-ip-authorization":  true,
	"x-original-url":             true,
	"x-rewrite-url":              true,
	"x-client-ip":                true,
	"true-client-ip":             true,
	"forwarded":                  true,
	"origin":                     true,
}

// Extract enumerates every injectable vector in req.
func Extract(req *reqparse.ParsedRequest) []Vector {
	var out []Vector
	out = append(out, extractQuery(req)...)
	out = append(out, extractHeaders(req)...)
	out = append(out, extractCookies(req)...)
	out = append(out, extractBody(req)...)
	return out
}

func extractQuery(req *reqparse.ParsedRequest) []Vector {
	var out []Vector
	u, err := url.Parse(req.Path)
	if err != nil || u.RawQuery == "" {
		return out
	}
	for name, values := range u.Query() {
		for _, v := range values {
			out = append(out, Vector{Location: Query, Name: name, OriginalValue: v})
		}
	}
	return out
}

func extractHeaders(req *reqparse.ParsedRequest) []Vector {
	var out []Vector
	for name, value := range req.Headers {
		if injectableHeaders[strings.ToLower(name)] {
			out = append(out, Vector{Location: Header, Name: name, OriginalValue: value})
		}
	}
	return out
}

func extractCookies(req *reqparse.ParsedRequest) []Vector {
	var out []Vector
	cookieHeader, ok := req.HeaderValue("Cookie")
	if !ok {
		return out
	}
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		if idx := strings.Index(part, "="); idx != -1 {
			name := strings.TrimSpace(part[:idx])
			value := strings.TrimSpace(part[idx+1:])
			out = append(out, Vector{Location: Cookie, Name: name, OriginalValue: value})
		}
	}
	return out
}

func extractBody(req *reqparse.ParsedRequest) []Vector {
	var out []Vector
	if len(req.Body) == 0 {
		return out
	}
	contentType, _ := req.HeaderValue("Content-Type")
	contentType = strings.ToLower(contentType)

	switch {
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(req.Body))
		if err != nil {
			return out
		}
		for name, vs := range values {
			for _, v := range vs {
				out = append(out, Vector{Location: Body, Name: name, OriginalValue: v})
			}
		}
	case strings.Contains(contentType, "application/json"):
		var data map[string]any
		if err := json.Unmarshal(req.Body, &data); err != nil {
			return out
		}
		for key, value := range data {
			if s, ok := value.(string); ok {
				out = append(out, Vector{Location: JSON, Name: key, OriginalValue: s})
			}
		}
	}
	return out
}
