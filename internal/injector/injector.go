// Package injector implements the Injector from §4.4: substituting the
// callback placeholder into a payload template, recording the injection
// before sending, rate limiting, sending, and reporting the outcome.
package injector

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/invaen/ricochet/internal/models"
	"github.com/invaen/ricochet/internal/netfetch"
	"github.com/invaen/ricochet/internal/ratelimit"
	"github.com/invaen/ricochet/internal/reqparse"
	"github.com/invaen/ricochet/internal/token"
	"github.com/invaen/ricochet/internal/vectors"
)

// Store is the subset of the Store's operations the Injector depends on.
type Store interface {
	RecordInjection(models.Injection) error
}

// callbackPattern matches every accepted placeholder spelling,
// case-insensitively on the CALLBACK token itself (§6, supplemented by
// the reference's exhaustive four-spelling list).
var callbackPattern = regexp.MustCompile(`(?i)\{\{CALLBACK\}\}|\{CALLBACK\}|\$\{CALLBACK\}`)

// SubstituteCallback replaces every recognized placeholder in payload
// with callbackURL/token, exactly once each, leaving all other
// substrings untouched. A placeholder with internal whitespace (e.g.
// "{{ CALLBACK }}") is not recognized and is left as literal text.
func SubstituteCallback(payload, callbackURL, tok string) string {
	full := strings.TrimRight(callbackURL, "/") + "/" + tok
	return callbackPattern.ReplaceAllString(payload, full)
}

// Result is the outcome of a single injection attempt.
type Result struct {
	Token     string
	Vector    vectors.Vector
	URL       string
	Status    int
	Success   bool
	Error     string
	DryRun    bool
}

// Injector is the multi-vector injection orchestrator.
type Injector struct {
	Store              Store
	RateLimiter        *ratelimit.Limiter
	Timeout            float64 // seconds
	CallbackURL        string
	InsecureSkipVerify bool
	ProxyURL           string
	Context            string // vuln-class tag (e.g. "sqli:mssql"), stored on every Injection (I7)
	Now                func() float64 // injectable clock for tests
}

// New constructs an Injector with a default 10 req/s, burst-1 rate
// limiter and a 10s timeout, matching the reference's defaults.
func New(store Store, callbackURL string) *Injector {
	return &Injector{
		Store:       store,
		RateLimiter: ratelimit.New(10, 1),
		Timeout:     10,
		CallbackURL: callbackURL,
		Now:         nowUnix,
	}
}

// InjectVector injects payload into a single vector of req.
func (inj *Injector) InjectVector(req *reqparse.ParsedRequest, vec vectors.Vector, payload string, useHTTPS, dryRun bool) Result {
	tok, err := token.Generate()
	if err != nil {
		return Result{Error: fmt.Sprintf("mint token: %v", err)}
	}

	finalPayload := SubstituteCallback(payload, inj.CallbackURL, tok)
	modified := applyPayload(req, vec, finalPayload)
	target := reqparse.BuildURL(modified, useHTTPS)

	record := models.Injection{
		Token:      tok,
		TargetURL:  target,
		Parameter:  fmt.Sprintf("%s:%s", vec.Location, vec.Name),
		Payload:    finalPayload,
		Context:    inj.Context,
		InjectedAt: inj.now(),
	}
	if err := inj.Store.RecordInjection(record); err != nil {
		return Result{Token: tok, Vector: vec, URL: target, Error: fmt.Sprintf("record injection: %v", err)}
	}

	if dryRun {
		return Result{Token: tok, Vector: vec, URL: target, Success: true, DryRun: true, Error: "[dry-run] request not sent"}
	}

	inj.RateLimiter.Acquire()

	headers := netfetch.PrepareHeadersForBody(modified.Headers, modified.Body)
	resp, err := netfetch.Send(target, netfetch.Options{
		Method:             modified.Method,
		Headers:            headers,
		Body:               modified.Body,
		Timeout:            durationSeconds(inj.Timeout),
		InsecureSkipVerify: inj.InsecureSkipVerify,
		ProxyURL:           inj.ProxyURL,
		FollowRedirects:    false,
	})
	if err != nil {
		return Result{Token: tok, Vector: vec, URL: target, Error: err.Error()}
	}

	return Result{Token: tok, Vector: vec, URL: target, Status: resp.Status, Success: true}
}

// InjectAllVectors injects payload into every vector extracted from req.
func (inj *Injector) InjectAllVectors(req *reqparse.ParsedRequest, payload string, useHTTPS, dryRun bool) []Result {
	vs := vectors.Extract(req)
	results := make([]Result, 0, len(vs))
	for _, v := range vs {
		results = append(results, inj.InjectVector(req, v, payload, useHTTPS, dryRun))
	}
	return results
}

// InjectSingleParam injects payload into the first vector (of any kind)
// whose name matches paramName.
func (inj *Injector) InjectSingleParam(req *reqparse.ParsedRequest, paramName, payload string, useHTTPS, dryRun bool) (*Result, bool) {
	for _, v := range vectors.Extract(req) {
		if v.Name == paramName {
			r := inj.InjectVector(req, v, payload, useHTTPS, dryRun)
			return &r, true
		}
	}
	return nil, false
}

func (inj *Injector) now() float64 {
	if inj.Now != nil {
		return inj.Now()
	}
	return nowUnix()
}

func applyPayload(req *reqparse.ParsedRequest, vec vectors.Vector, payload string) *reqparse.ParsedRequest {
	switch vec.Location {
	case vectors.Query:
		return reqparse.InjectQueryParam(req, vec.Name, payload)
	case vectors.Header:
		return injectHeader(req, vec.Name, payload)
	case vectors.Cookie:
		return injectCookie(req, vec.Name, payload)
	case vectors.Body:
		return injectFormBody(req, vec.Name, payload)
	case vectors.JSON:
		return injectJSONBody(req, vec.Name, payload)
	default:
		return req.Clone()
	}
}

func injectHeader(req *reqparse.ParsedRequest, name, payload string) *reqparse.ParsedRequest {
	clone := req.Clone()
	for k := range clone.Headers {
		if strings.EqualFold(k, name) {
			clone.Headers[k] = payload
			break
		}
	}
	return clone
}

func injectCookie(req *reqparse.ParsedRequest, name, payload string) *reqparse.ParsedRequest {
	clone := req.Clone()
	cookieKey := ""
	cookieValue := ""
	for k, v := range clone.Headers {
		if strings.EqualFold(k, "Cookie") {
			cookieKey = k
			cookieValue = v
			break
		}
	}
	if cookieKey == "" {
		return clone
	}

	var rebuilt []string
	for _, part := range strings.Split(cookieValue, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, "=")
		if idx == -1 {
			rebuilt = append(rebuilt, part)
			continue
		}
		n := strings.TrimSpace(part[:idx])
		v := part[idx+1:]
		if n == name {
			rebuilt = append(rebuilt, n+"="+payload)
		} else {
			rebuilt = append(rebuilt, n+"="+v)
		}
	}
	clone.Headers[cookieKey] = strings.Join(rebuilt, "; ")
	return clone
}

func injectFormBody(req *reqparse.ParsedRequest, name, payload string) *reqparse.ParsedRequest {
	clone := req.Clone()
	if clone.Body == nil {
		return clone
	}
	values, err := url.ParseQuery(string(clone.Body))
	if err != nil {
		return clone
	}
	if _, ok := values[name]; ok {
		values.Set(name, payload)
	}
	clone.Body = []byte(values.Encode())
	return clone
}

func injectJSONBody(req *reqparse.ParsedRequest, field, payload string) *reqparse.ParsedRequest {
	clone := req.Clone()
	if clone.Body == nil {
		return clone
	}
	var data map[string]any
	if err := json.Unmarshal(clone.Body, &data); err != nil {
		return clone
	}
	if _, ok := data[field]; !ok {
		return clone
	}
	data[field] = payload
	out, err := json.Marshal(data)
	if err != nil {
		return clone
	}
	clone.Body = out
	return clone
}
