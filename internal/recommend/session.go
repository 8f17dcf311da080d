package recommend

import (
	"sync"

	"github.com/R-Vicente/watchnext/internal/models"
)

// Session is a user's in-progress recommendation flow. It remembers what was
// already suggested and which request is current.
type Session struct {
	mu         sync.Mutex
	selection  *models.MoodSelection
	suggested  map[models.ContentKey]struct{}
	generation uint64
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{suggested: make(map[models.ContentKey]struct{})}
}

// Select stores the questionnaire answer. Changing it forgets earlier suggestions.
func (s *Session) Select(sel models.MoodSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection != nil && *s.selection == sel {
		return
	}
	s.selection = &sel
	s.suggested = make(map[models.ContentKey]struct{})
}

// Selection returns the stored questionnaire answer.
func (s *Session) Selection() (models.MoodSelection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection == nil {
		return models.MoodSelection{}, false
	}
	return *s.selection, true
}

// Begin starts a new request and returns its generation token.
// Any earlier in-flight request becomes stale.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	return s.generation
}

// IsCurrent reports whether gen is still the latest request.
func (s *Session) IsCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return gen == s.generation
}

// Suggested returns a copy of the identities already shown.
func (s *Session) Suggested() map[models.ContentKey]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[models.ContentKey]struct{}, len(s.suggested))
	for k := range s.suggested {
		out[k] = struct{}{}
	}
	return out
}

// CompleteIfCurrent records key as suggested when gen is still current.
func (s *Session) CompleteIfCurrent(gen uint64, key models.ContentKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.suggested[key] = struct{}{}
	return true
}

// Reset clears the flow and invalidates in-flight requests.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = nil
	s.suggested = make(map[models.ContentKey]struct{})
	s.generation++
}
