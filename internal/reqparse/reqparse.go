// Package reqparse parses Burp-style raw HTTP request files into a
// structured ParsedRequest (§6 "Burp-style request file format").
package reqparse

import (
	"bufio"
	"bytes"
	"fmt"
	"net/textproto"
	"strings"
)

// ParsedRequest is the structured form of a raw HTTP request.
type ParsedRequest struct {
	Method      string
	Path        string
	HTTPVersion string
	Headers     map[string]string // canonical-cased key -> value
	Body        []byte            // nil if no body present
	Host        string
}

var boundary = []byte("\r\n\r\n")

// ParseFile parses a raw HTTP/1.1 request. CRLF is canonical; ParseString
// tolerates LF-only input by normalizing first. The Host header is
// mandatory; its absence is a malformed-request error (exit code 2 at the
// CLI layer, §7).
func ParseFile(content []byte) (*ParsedRequest, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("empty request content")
	}

	var headerSection []byte
	var body []byte
	if idx := bytes.Index(content, boundary); idx == -1 {
		headerSection = content
		body = nil
	} else {
		headerSection = content[:idx]
		rest := content[idx+len(boundary):]
		if len(rest) > 0 {
			body = rest
		}
	}

	lines := bytes.Split(headerSection, []byte("\r\n"))
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, fmt.Errorf("malformed request: missing request line")
	}

	requestLine := string(lines[0])
	parts := strings.Fields(requestLine)
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed request line: %q", requestLine)
	}

	method := parts[0]
	path := parts[1]
	httpVersion := "HTTP/1.1"
	if len(parts) >= 3 {
		httpVersion = parts[2]
	}

	headers := make(map[string]string)
	if len(lines) > 1 {
		raw := bytes.Join(lines[1:], []byte("\r\n"))
		raw = append(raw, []byte("\r\n\r\n")...)
		reader := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw)))
		mimeHeader, err := reader.ReadMIMEHeader()
		if err != nil && len(bytes.TrimSpace(raw)) > 0 {
			return nil, fmt.Errorf("malformed headers: %w", err)
		}
		for k, v := range mimeHeader {
			if len(v) > 0 {
				headers[k] = v[0]
			}
		}
	}

	host := ""
	for k, v := range headers {
		if strings.EqualFold(k, "Host") {
			host = v
			break
		}
	}
	if host == "" {
		return nil, fmt.Errorf("missing Host header")
	}

	return &ParsedRequest{
		Method:      method,
		Path:        path,
		HTTPVersion: httpVersion,
		Headers:     headers,
		Body:        body,
		Host:        host,
	}, nil
}

// ParseString normalizes CRLF/LF/CR line endings to CRLF before parsing,
// tolerating LF-only Burp exports while treating CRLF as canonical.
func ParseString(content string) (*ParsedRequest, error) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.ReplaceAll(normalized, "\n", "\r\n")
	return ParseFile([]byte(normalized))
}

// BuildURL reconstructs the absolute URL for req, choosing the scheme by
// useHTTPS.
func BuildURL(req *ParsedRequest, useHTTPS bool) string {
	scheme := "http"
	if useHTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, req.Host, req.Path)
}

// HeaderValue looks up a header case-insensitively.
func (r *ParsedRequest) HeaderValue(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Clone returns a deep-enough copy of req suitable for per-vector
// mutation (headers map and body slice are copied; callers mutate the
// clone, never the original).
func (r *ParsedRequest) Clone() *ParsedRequest {
	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	var body []byte
	if r.Body != nil {
		body = append([]byte(nil), r.Body...)
	}
	return &ParsedRequest{
		Method:      r.Method,
		Path:        r.Path,
		HTTPVersion: r.HTTPVersion,
		Headers:     headers,
		Body:        body,
		Host:        r.Host,
	}
}
