package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// persisted is everything that survives a process restart. Nothing else is
// written to disk here; transcripts live in their own cache.
type persisted struct {
	SessionID      string `json:"session_id,omitempty"`
	OnboardingSeen bool   `json:"onboarding_seen,omitempty"`
	Goal           string `json:"goal,omitempty"`
}

// Store persists the session id, onboarding flag, and stated goal to a JSON
// file so they survive across CLI invocations.
type Store struct {
	mu   sync.Mutex
	path string
	data persisted
}

// NewStore loads the store at path. A missing or corrupt file starts empty.
func NewStore(path string) *Store {
	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = persisted{}
	}
	return s
}

// SessionID returns the persisted session id, empty when none was saved.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SessionID
}

// SetSessionID saves the session id. Saving the id already stored is a
// no-op, so adopting the same session repeatedly does not rewrite the file.
func (s *Store) SetSessionID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.SessionID == id {
		return nil
	}
	s.data.SessionID = id
	return s.save()
}

// OnboardingSeen reports whether the onboarding flow was completed.
func (s *Store) OnboardingSeen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.OnboardingSeen
}

// MarkOnboardingSeen records onboarding completion.
func (s *Store) MarkOnboardingSeen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.OnboardingSeen {
		return nil
	}
	s.data.OnboardingSeen = true
	return s.save()
}

// Goal returns the persisted goal, empty when none was stated.
func (s *Store) Goal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Goal
}

// SetGoal saves the user's stated goal.
func (s *Store) SetGoal(goal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Goal = goal
	return s.save()
}

// ClearSession drops the persisted session id and goal. The onboarding flag
// survives a session reset.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.SessionID = ""
	s.data.Goal = ""
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
