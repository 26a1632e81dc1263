package bot

import (
	"context"
	"fmt"
	"sync"
)

// MockSender implements Sender for testing. It records every sent message
// and answered callback, and can be told to fail.
type MockSender struct {
	mu        sync.Mutex
	sent      []SentMessage
	answered  []string
	failSends bool
}

// SentMessage is one recorded SendMessage call.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard Keyboard
}

// NewMockSender creates a MockSender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// SendMessage records the outbound message.
func (m *MockSender) SendMessage(ctx context.Context, chatID int64, text string, keyboard Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSends {
		return fmt.Errorf("mock sender: send failed")
	}
	m.sent = append(m.sent, SentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

// AnswerCallback records the acknowledged callback ID.
func (m *MockSender) AnswerCallback(ctx context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

// --- Test helpers ---

// FailSends makes subsequent SendMessage calls return an error.
func (m *MockSender) FailSends(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSends = fail
}

// LastSent returns the most recently sent message.
// Returns zero value and false if nothing has been sent.
func (m *MockSender) LastSent() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// AllSent returns a copy of every sent message.
func (m *MockSender) AllSent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentCount returns the number of sent messages.
func (m *MockSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// Answered returns a copy of every acknowledged callback ID.
func (m *MockSender) Answered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.answered))
	copy(out, m.answered)
	return out
}
