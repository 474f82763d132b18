package skype

import (
	"maps"
	"strings"
	"sync"
)

// Request-scoped headers that must never leak from the captured set into a
// new request.
const (
	headerContextID     = "ContextId"
	headerContentLength = "Content-Length"
)

// HeaderStore holds the captured session credentials. It is written once
// per login and read by every outbound request.
type HeaderStore struct {
	mu        sync.RWMutex
	headers   map[string]string
	token     string
	populated bool
}

func NewHeaderStore() *HeaderStore {
	return &HeaderStore{}
}

// Update replaces the stored credentials wholesale.
func (h *HeaderStore) Update(creds Credentials) {
	headers := make(map[string]string, len(creds.Headers))
	maps.Copy(headers, creds.Headers)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.headers = headers
	h.token = creds.SkypeToken
	h.populated = true
}

// Snapshot returns a copy of the stored headers with the context id and
// content length removed. Callers may mutate the copy freely.
func (h *HeaderStore) Snapshot() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]string, len(h.headers))
	for name, value := range h.headers {
		if strings.EqualFold(name, headerContextID) || strings.EqualFold(name, headerContentLength) {
			continue
		}
		out[name] = value
	}
	return out
}

func (h *HeaderStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Ready reports whether credentials have been stored.
func (h *HeaderStore) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.populated
}
