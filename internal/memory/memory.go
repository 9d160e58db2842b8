// Package memory keeps the recent conversation turns of one chat session.
package memory

import (
	"sync"

	"github.com/rcliao/kai/internal/model"
)

// DefaultMaxHistory is the number of user/assistant exchanges kept.
const DefaultMaxHistory = 10

// Memory is a bounded, ordered turn log. Older turns are dropped, never
// summarized. It is safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	maxHistory int
	turns      []model.Turn
}

// New creates a memory holding at most maxHistory exchanges (2*maxHistory turns).
func New(maxHistory int) *Memory {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Memory{maxHistory: maxHistory}
}

// Append adds a turn at the end of the log.
func (m *Memory) Append(t model.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, t)
	if over := len(m.turns) - m.capacity(); over > 0 {
		// Copy down so the backing array does not grow without bound.
		m.turns = append(m.turns[:0], m.turns[over:]...)
	}
}

// Window returns a copy of the retained turns, oldest first.
func (m *Memory) Window() []model.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Turn(nil), m.turns...)
}

// Len returns the number of retained turns.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Reset clears the log.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

func (m *Memory) capacity() int { return 2 * m.maxHistory }
