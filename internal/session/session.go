// Package session keeps per-user conversation state in memory for the
// lifetime of the process.
package session

import "sync"

// ModelConfig is the generation configuration a session is bound to.
type ModelConfig struct {
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	// BlockNone disables every content-safety threshold.
	BlockNone bool
}

// DefaultModelConfig mirrors the permissive settings the bot runs with.
func DefaultModelConfig(model string) ModelConfig {
	return ModelConfig{
		Model:           model,
		Temperature:     1,
		TopP:            1,
		TopK:            1,
		MaxOutputTokens: 1024,
		BlockNone:       true,
	}
}

// Session is one user's conversation. Callers hold Lock while reading or
// changing the history so that a user's turns are applied in order.
type Session struct {
	mu      sync.Mutex
	userID  string
	config  ModelConfig
	history *History
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) UserID() string      { return s.userID }
func (s *Session) Config() ModelConfig { return s.config }

// History must only be used while the session is locked.
func (s *Session) History() *History { return s.history }

// Store maps user ids to sessions. Entries are created lazily and never
// removed.
type Store struct {
	mu       sync.Mutex
	limit    int
	config   ModelConfig
	sessions map[string]*Session
}

func NewStore(limit int, config ModelConfig) *Store {
	return &Store{
		limit:    limit,
		config:   config,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for userID, creating an empty one on first
// use. Later calls return the same *Session.
func (s *Store) GetOrCreate(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := &Session{
		userID:  userID,
		config:  s.config,
		history: NewHistory(s.limit),
	}
	s.sessions[userID] = sess
	return sess
}

// Len returns the number of known users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
