package mailer

import (
	"context"
	"sync"
)

// MockMailer records sent emails for tests
type MockMailer struct {
	mu   sync.Mutex
	sent []Email

	// FailNext makes the next Send call return this error, once
	FailNext error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{sent: make([]Email, 0)}
}

func (m *MockMailer) Send(_ context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}

	m.sent = append(m.sent, email)
	return nil
}

// SentEmails returns a snapshot of everything sent so far
func (m *MockMailer) SentEmails() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]Email, len(m.sent))
	copy(snapshot, m.sent)
	return snapshot
}

// Clear resets the recorded emails
func (m *MockMailer) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = m.sent[:0]
}
