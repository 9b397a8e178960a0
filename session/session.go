package session

import (
	"encoding/json"
	"fmt"
)

// Session is the per-browser state of one request. Handlers read it with Decode and
// replace it with Encode; the middleware persists the change after the handler returns.
type Session struct {
	ID string

	payload []byte
	dirty   bool
	cleared bool
}

func newSession(id string, payload []byte) *Session {
	return &Session{ID: id, payload: payload}
}

// Decode unmarshals the stored payload into v. An empty session leaves v untouched.
func (s *Session) Decode(v interface{}) error {
	if len(s.payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(s.payload, v); err != nil {
		return fmt.Errorf("failed to decode session %s: %w", s.ID, err)
	}
	return nil
}

// Encode replaces the stored payload with v
func (s *Session) Encode(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	s.payload = payload
	s.dirty = true
	s.cleared = false
	return nil
}

// Clear drops the stored payload
func (s *Session) Clear() {
	s.payload = nil
	s.dirty = false
	s.cleared = true
}

// Empty reports whether nothing is stored
func (s *Session) Empty() bool {
	return len(s.payload) == 0
}
