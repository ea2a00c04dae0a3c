package platform

import (
	"sync"

	"github.com/roach88/modelq/internal/ir"
)

// Session keys.
const (
	// KeyModel holds the resolved path of the loaded model. It is the only
	// key persisted to the store; the graph is rebuilt from it.
	KeyModel = "modelq.runtime.model"

	keyGraph = "modelq.runtime.graph"
)

// Session is the in-memory state of one session: a key/value map holding,
// among others, the loaded model graph.
//
// Safe for concurrent use.
type Session struct {
	ID         string
	CreatedSeq int64

	mu     sync.RWMutex
	values map[string]any
}

func newSession(id string, seq int64) *Session {
	return &Session{
		ID:         id,
		CreatedSeq: seq,
		values:     make(map[string]any),
	}
}

// Store sets key to value.
func (s *Session) Store(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Model returns the graph loaded into the session, if any.
func (s *Session) Model() (*ir.Graph, bool) {
	v, ok := s.Get(keyGraph)
	if !ok {
		return nil, false
	}
	g, ok := v.(*ir.Graph)
	return g, ok && g != nil
}

// ModelPath returns the path the session's model was loaded from.
func (s *Session) ModelPath() string {
	v, _ := s.Get(KeyModel)
	path, _ := v.(string)
	return path
}
