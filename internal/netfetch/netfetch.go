// Package netfetch implements the HTTP Client operation from §4.3: a
// single send-request call returning every HTTP status as data, with
// tagged errors for the two failure modes that are not statuses
// (NetworkError, TimeoutError).
package netfetch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrNetwork marks a DNS, TCP, or TLS failure reaching the target.
var ErrNetwork = errors.New("netfetch: network error")

// ErrTimeout marks a request that exceeded its configured timeout.
var ErrTimeout = errors.New("netfetch: timeout")

// Response is the data-carrying result for every HTTP status, including
// 4xx/5xx and un-followed 3xx redirects.
type Response struct {
	Status   int
	Reason   string
	Headers  http.Header
	Body     []byte
	FinalURL string
}

// Options configures a single send.
type Options struct {
	Method             string
	Headers            map[string]string
	Body               []byte
	Timeout            time.Duration
	InsecureSkipVerify bool // opt-in TLS-verification bypass (§4.3); verified by default
	ProxyURL           string
	FollowRedirects    bool
}

// Send issues one HTTP request per Options and returns a Response for
// every reachable status code. Connection/DNS/TLS failures are reported
// as ErrNetwork; exceeding Timeout is reported as ErrTimeout. When a
// proxy is configured, environment proxy discovery is disabled so the
// explicit proxy is the only one in effect (§4.3).
func Send(target string, opts Options) (*Response, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		bodyReader = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequest(method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("%w: parse proxy url: %v", ErrNetwork, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	} else {
		transport.Proxy = nil
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = insecureTLSConfig()
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %s: %v", ErrTimeout, target, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNetwork, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		Status:   resp.StatusCode,
		Reason:   http.StatusText(resp.StatusCode),
		Headers:  resp.Header,
		Body:     body,
		FinalURL: finalURL,
	}, nil
}

// PrepareHeadersForBody returns a copy of headers with Content-Length
// overridden to match body's length, whenever body is non-nil. Any
// body-modifying injection must emit a correct Content-Length (§4.4).
func PrepareHeadersForBody(headers map[string]string, body []byte) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if body != nil {
		out["Content-Length"] = fmt.Sprintf("%d", len(body))
	}
	return out
}
