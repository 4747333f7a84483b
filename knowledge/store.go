// Package knowledge holds the deterministic lookups the desk consults before
// delegating to an agent: FAQ answers, order status, and hotel profiles.
//
// Registries are plain in-memory stores; callers must serialize access per
// session key, there is no internal locking.
package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

// Store is the contract registries satisfy so they can be injected into the
// desk. The process-wide defaults exist only for the demo entry point.
type Store[T any] interface {
	Get(key string) (T, bool)
	Put(key string, value T)
	List() []T
}

// NotFoundError reports a missed lookup. It carries the caller-supplied,
// non-normalized key for display.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// IsNotFound reports whether err is a missed lookup.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// NormalizeKey lower-cases, trims, and collapses inner whitespace so that
// "  Hotel   Sannata " and "hotel sannata" address the same record.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
