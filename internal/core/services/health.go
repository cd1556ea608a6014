package services

import (
	"sort"
	"sync"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Ensure Health implements the interface.
var _ driven.HealthReporter = (*Health)(nil)

// Health counts component failures that did not fail a request.
type Health struct {
	mu       sync.Mutex
	failures map[string]int
	last     map[string]string
}

// NewHealth creates an empty failure counter.
func NewHealth() *Health {
	return &Health{failures: make(map[string]int), last: make(map[string]string)}
}

// ReportFailure records one failure for component.
func (h *Health) ReportFailure(component string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[component]++
	if err != nil {
		h.last[component] = err.Error()
	}
	logger.Warn("%s failure: %v", component, err)
}

// Snapshot returns a copy of the failure counts.
func (h *Health) Snapshot() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.failures))
	for k, v := range h.failures {
		out[k] = v
	}
	return out
}

// LastError returns the most recent error message for component.
func (h *Health) LastError(component string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last[component]
}

// Components lists components with at least one failure, sorted.
func (h *Health) Components() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.failures))
	for k := range h.failures {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Healthy reports whether no failures were recorded.
func (h *Health) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.failures) == 0
}
