package oauth

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	"golang.org/x/time/rate"
)

// Handler validates bearer tokens and serves the OAuth discovery metadata.
type Handler struct {
	config Config
	store  storage.TokenStore
	owned  *memory.Store
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHandler creates a Handler for config.
func NewHandler(config Config) (*Handler, error) {
	if err := ValidateResource(config.Resource); err != nil {
		return nil, err
	}
	config.setDefaults()

	h := &Handler{
		config:   config,
		store:    config.Store,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiters: make(map[string]*rate.Limiter),
	}
	if h.store == nil {
		h.owned = memory.New()
		h.store = h.owned
	}
	return h, nil
}

// Store returns the token store validated tokens are saved to.
func (h *Handler) Store() storage.TokenStore {
	return h.store
}

// Resource returns the public base URL.
func (h *Handler) Resource() string {
	return h.config.Resource
}

// Stop releases the background resources of an owned store.
func (h *Handler) Stop() {
	if h.owned != nil {
		h.owned.Stop()
	}
}

// RegisterEndpoints adds the discovery endpoint to mux.
func (h *Handler) RegisterEndpoints(mux *http.ServeMux) {
	mux.Handle(ProtectedResourceMetadataPath, h.RateLimit(http.HandlerFunc(h.ServeProtectedResourceMetadata)))
}

// Protect rate limits next and requires a valid Google bearer token.
func (h *Handler) Protect(next http.Handler) http.Handler {
	return h.RateLimit(h.ValidateGoogleToken(next))
}

// ProtectedResourceMetadata is the RFC 9728 document.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
}

// ServeProtectedResourceMetadata points clients at Google.
func (h *Handler) ServeProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_ = json.NewEncoder(w).Encode(ProtectedResourceMetadata{
		Resource:               h.config.Resource,
		AuthorizationServers:   []string{GoogleIssuer},
		BearerMethodsSupported: []string{"header"},
		ScopesSupported:        h.config.Scopes,
	})
}

// RateLimit rejects clients exceeding the per-IP request rate.
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			h.writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) limiter(ip string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[ip]
	if !ok {
		l = rate.NewLimiter(h.config.RateLimit, h.config.RateBurst)
		h.limiters[ip] = l
	}
	return l
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ErrorResponse is an OAuth error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, ErrorDescription: description})
}

func (h *Handler) challenge(w http.ResponseWriter, code, description string) {
	v := fmt.Sprintf(`Bearer realm=%q, resource_metadata=%q`, h.config.Resource, h.config.Resource+ProtectedResourceMetadataPath)
	if code != "missing_token" {
		v += fmt.Sprintf(`, error=%q, error_description=%q`, code, description)
	}
	w.Header().Set("WWW-Authenticate", v)
	h.writeError(w, http.StatusUnauthorized, code, description)
}
