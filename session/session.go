// Package session tracks per-customer conversation state across turns.
package session

import (
	"github.com/alphadose/haxmap"

	"github.com/qasid-ai/qasid/types"
)

// ActiveHotelKey is the context variable holding the session's current topic.
const ActiveHotelKey = "active_hotel"

// Store maps session keys to their context variables. The map itself is safe
// for concurrent lookups; the returned ContextVars are not, callers must
// serialize turns per session key.
type Store struct {
	sessions *haxmap.Map[string, types.ContextVars]
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: haxmap.New[string, types.ContextVars]()}
}

// Get returns the context variables for a session, creating them on first use.
func (s *Store) Get(sessionID string) types.ContextVars {
	cv, _ := s.sessions.GetOrCompute(sessionID, func() types.ContextVars {
		return types.ContextVars{"customer_id": sessionID}
	})
	return cv
}

// Save replaces the stored context variables for a session.
func (s *Store) Save(sessionID string, cv types.ContextVars) {
	s.sessions.Set(sessionID, cv)
}

// ActiveHotel returns the session's active topic pointer, if set.
func (s *Store) ActiveHotel(sessionID string) (string, bool) {
	hotel := s.Get(sessionID).GetString(ActiveHotelKey)
	return hotel, hotel != ""
}

// SetActiveHotel points the session at a hotel. There is at most one active
// topic per session; a later explicit mention overrides the previous one.
func (s *Store) SetActiveHotel(sessionID, hotel string) {
	cv := s.Get(sessionID)
	cv[ActiveHotelKey] = hotel
	s.Save(sessionID, cv)
}
