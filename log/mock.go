package log

import (
	"fmt"
	"regexp"
	"sync"
)

// Mock is a Logger that stores all logged messages in a buffer for
// inspection by test functions instead of writing them anywhere.
type Mock struct {
	impl
	w *mockWriter
}

// NewMock returns a fresh Mock.
func NewMock() *Mock {
	w := &mockWriter{}
	return &Mock{impl{w}, w}
}

type mockWriter struct {
	mu     sync.Mutex
	logged []string
}

func (w *mockWriter) logAtLevel(l level, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logged = append(w.logged, fmt.Sprintf("%s: %s", levelName(l), msg))
}

func levelName(l level) string {
	switch l {
	case levelErr:
		return "ERR"
	case levelWarning:
		return "WARNING"
	case levelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// GetAll returns all messages logged since instantiation or the last call
// to Clear, each prefixed with its level name.
func (m *Mock) GetAll() []string {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return append([]string(nil), m.w.logged...)
}

// GetAllMatching returns all logged messages matching the given regexp.
func (m *Mock) GetAllMatching(expr string) []string {
	re := regexp.MustCompile(expr)
	var matches []string
	for _, line := range m.GetAll() {
		if re.MatchString(line) {
			matches = append(matches, line)
		}
	}
	return matches
}

// Clear discards all logged messages.
func (m *Mock) Clear() {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	m.w.logged = nil
}
