package logging

import (
	"strings"
	"sync"
)

// Memory is the "list" handler: it keeps every encoded entry, one per
// element, without the trailing newline.
type Memory struct {
	mu    sync.Mutex
	lines []string
}

// Write stores p. zap writes one encoded entry per call.
func (m *Memory) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		m.lines = append(m.lines, line)
	}
	return len(p), nil
}

// Sync is a no-op.
func (m *Memory) Sync() error {
	return nil
}

// Lines returns a copy of the stored entries.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Reset drops every stored entry.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
}
