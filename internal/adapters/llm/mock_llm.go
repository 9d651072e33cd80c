package llm

import (
	"context"
	"strings"
	"sync"
)

const mockDefaultReply = `{"action": "ERROR", "data": {"message": "Message non reconnu"}}`

// MockClassifier answers from a script keyed by the trimmed message text.
// Unknown messages get Default, or an ERROR action when Default is empty.
type MockClassifier struct {
	mu      sync.Mutex
	replies map[string]string
	Default string
	Err     error

	calls []string
}

func NewMockClassifier() *MockClassifier {
	return &MockClassifier{replies: make(map[string]string)}
}

// On scripts the completion returned for text.
func (m *MockClassifier) On(text, completion string) *MockClassifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[strings.TrimSpace(text)] = completion
	return m
}

func (m *MockClassifier) Classify(_ context.Context, _, _, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.TrimSpace(text)
	m.calls = append(m.calls, key)
	if m.Err != nil {
		return "", m.Err
	}
	if reply, ok := m.replies[key]; ok {
		return reply, nil
	}
	if m.Default != "" {
		return m.Default, nil
	}
	return mockDefaultReply, nil
}

// Calls returns the texts received so far.
func (m *MockClassifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
