// Package interactsh wraps the external interact.sh OAST protocol for
// the `interactsh url`/`interactsh poll` subcommands (§6): mint a
// globally-reachable callback domain and poll it for interactions, as
// an alternative to the self-hosted HTTP/DNS Callback Listeners.
//
// The reference tool shells out to interactsh-client or speaks the
// register/poll/delete HTTP protocol directly; this package does the
// latter over net/http rather than vendoring a client implementation,
// since no fetchable published build of the real client library was
// available to ground a direct import on (see DESIGN.md).
package interactsh

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultServer is the public interact.sh instance used when none is
// configured.
const DefaultServer = "https://interact.sh"

// Interaction is one OOB callback reported by the interactsh server.
type Interaction struct {
	FullID      string `json:"full-id"`
	UniqueID    string `json:"unique-id"`
	Protocol    string `json:"protocol"`
	RawRequest  string `json:"raw-request"`
	RawResponse string `json:"raw-response"`
	Timestamp   string `json:"timestamp"`
}

// Client registers a correlation ID against an interactsh server and
// polls it for interactions, deduplicating by FullID across calls.
type Client struct {
	serverURL     string
	secret        string
	correlationID string
	domain        string
	httpClient    *http.Client

	mu   sync.Mutex
	seen map[string]struct{}
}

// Options configures a new Client.
type Options struct {
	ServerURL     string
	CorrelationID string
	HTTPClient    *http.Client
}

type registerRequest struct {
	Secret        string `json:"secret"`
	CorrelationID string `json:"correlation_id"`
}

type registerResponse struct {
	Domain string `json:"domain"`
}

type pollResponse struct {
	Data []Interaction `json:"data"`
}

// New registers a fresh correlation ID (or the one supplied in opts)
// against the interactsh server and returns a Client ready to Poll.
func New(ctx context.Context, opts Options) (*Client, error) {
	server := strings.TrimRight(opts.ServerURL, "/")
	if server == "" {
		server = DefaultServer
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	secret, err := randomHex(16)
	if err != nil {
		return nil, err
	}
	corr := opts.CorrelationID
	if corr == "" {
		corr, err = randomHex(16)
		if err != nil {
			return nil, err
		}
	}

	c := &Client{
		serverURL:     server,
		secret:        secret,
		correlationID: corr,
		httpClient:    httpClient,
		seen:          map[string]struct{}{},
	}
	if err := c.register(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) register(ctx context.Context) error {
	body, err := json.Marshal(registerRequest{Secret: c.secret, CorrelationID: c.correlationID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("register with interactsh server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interactsh register: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var parsed registerResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("decode register response: %w", err)
	}
	if parsed.Domain == "" {
		return fmt.Errorf("interactsh register: missing domain in response")
	}
	c.domain = parsed.Domain
	return nil
}

// URL returns the minted callback domain.
func (c *Client) URL() string { return c.domain }

// CorrelationID returns the correlation ID registered with the server.
func (c *Client) CorrelationID() string { return c.correlationID }

// Poll fetches interactions recorded since the last Poll call,
// deduplicated by FullID.
func (c *Client) Poll(ctx context.Context) ([]Interaction, error) {
	endpoint := fmt.Sprintf("%s/poll?secret=%s&correlation_id=%s",
		c.serverURL, url.QueryEscape(c.secret), url.QueryEscape(c.correlationID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll interactsh server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interactsh poll: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed pollResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fresh := make([]Interaction, 0, len(parsed.Data))
	for _, in := range parsed.Data {
		if in.FullID == "" {
			in.FullID = in.UniqueID
		}
		if _, ok := c.seen[in.FullID]; ok {
			continue
		}
		c.seen[in.FullID] = struct{}{}
		fresh = append(fresh, in)
	}
	return fresh, nil
}

// Deregister removes the correlation ID from the server.
func (c *Client) Deregister(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/deregister?secret=%s&correlation_id=%s",
		c.serverURL, url.QueryEscape(c.secret), url.QueryEscape(c.correlationID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("interactsh deregister: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
