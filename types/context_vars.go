// Package types provides core type definitions shared across the qasid packages.
package types

import (
	"maps"

	json "github.com/goccy/go-json"
)

// ContextVars is the per-session conversation state. It maps string keys to
// values of any type and backs the dynamic rendering of agent instructions.
//
// Well-known keys used by the desk:
//   - "customer_id":  the customer/session identifier
//   - "active_hotel": the session's current topic pointer
//
// The map is owned by a single session; callers must serialize access per
// session key.
type ContextVars map[string]any

// String returns the JSON representation of the context variables, or the
// empty string when they cannot be marshaled.
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}

// Clone returns a shallow copy of the context variables.
func (cv ContextVars) Clone() ContextVars {
	if cv == nil {
		return ContextVars{}
	}
	out := make(ContextVars, len(cv))
	maps.Copy(out, cv)
	return out
}

// GetString returns the value for key when it is a string, or the empty
// string otherwise.
func (cv ContextVars) GetString(key string) string {
	if cv == nil {
		return ""
	}
	if v, ok := cv[key].(string); ok {
		return v
	}
	return ""
}
