// Package server implements the HTTP and DNS Callback Listeners (§4.5,
// §4.6): transports that accept any interaction, extract a token, and
// respond identically regardless of validity (I4).
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/token"
)

// maxCallbackBody caps how much of a POST/PUT/PATCH body the listener
// reads, preventing memory exhaustion (§4.5).
const maxCallbackBody = 1 << 20 // 1 MiB

// HTTPListener handles every HTTP method on every path, extracting a
// correlation token from the last non-empty path segment.
type HTTPListener struct {
	Store  *db.Store
	Logger *zap.Logger
}

// NewHTTPListener constructs the net/http.Handler backing the HTTP
// Callback Listener.
func NewHTTPListener(store *db.Store, logger *zap.Logger) *HTTPListener {
	return &HTTPListener{Store: store, Logger: logger}
}

func (h *HTTPListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tok, ok := extractTokenFromPath(r.URL.Path)

	var body []byte
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body, _ = io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	}

	if ok {
		headers := map[string]string{}
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}
		headersJSON, _ := json.Marshal(headers)

		recorded, err := h.Store.RecordCallback(
			tok,
			sourceIP(r.RemoteAddr),
			r.URL.Path,
			string(headersJSON),
			body,
			float64(time.Now().UnixNano())/1e9,
		)
		switch {
		case err != nil:
			h.Logger.Error("record callback failed", zap.Error(err))
		case recorded:
			h.Logger.Info("callback received",
				zap.String("token", tok),
				zap.String("source_ip", sourceIP(r.RemoteAddr)),
				zap.String("path", r.URL.Path),
			)
		default:
			h.Logger.Warn("unknown token callback",
				zap.String("token", tok),
				zap.String("source_ip", sourceIP(r.RemoteAddr)),
			)
		}
	} else {
		h.Logger.Debug("request without valid token", zap.String("path", r.URL.Path))
	}

	// Response is identical regardless of token validity (I4).
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", "2")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// extractTokenFromPath takes the last non-empty path segment and
// validates it against I1.
func extractTokenFromPath(path string) (string, bool) {
	segments := strings.Split(path, "/")
	var candidate string
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			candidate = segments[i]
			break
		}
	}
	if candidate == "" {
		return "", false
	}
	if !token.Valid(candidate) {
		return "", false
	}
	return candidate, true
}

func sourceIP(remoteAddr string) string {
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
