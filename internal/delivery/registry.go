// internal/delivery/registry.go
package delivery

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Handler delivers a notification to a target identified by its key.
type Handler func(target, message string) error

// Registry routes notifications to the appropriate delivery handler based
// on target key prefix (e.g. "telegram:", "ws:").
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for target keys starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver finds the handler matching the target key prefix and calls it.
// Returns an error if no handler is registered for the prefix.
func (r *Registry) Deliver(target, message string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for prefix, handler := range r.handlers {
		if strings.HasPrefix(target, prefix) {
			return handler(target, message)
		}
	}
	return fmt.Errorf("no delivery handler for target: %s", target)
}

// Broadcast delivers a message to every target in the list. Failures do not
// stop the remaining deliveries; the joined errors come back to the caller.
func (r *Registry) Broadcast(targets []string, message string) error {
	var errs []error
	for _, target := range targets {
		if err := r.Deliver(target, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
