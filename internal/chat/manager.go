// Package chat owns the conversation: the message log, the input buffer
// and the lifecycle of the single outstanding request.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Asker performs the outbound chat call
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Recorder keeps the recent-questions list. Record must not block for long
// and must swallow its own persistence errors.
type Recorder interface {
	Record(ctx context.Context, question string) []string
	List() []string
}

// Manager mediates every change to the conversation state
type Manager struct {
	asker    Asker
	recorder Recorder
	logger   *zap.SugaredLogger
	onChange func(State)

	mu        sync.Mutex
	sessionID string
	messages  []Message
	input     string
	request   RequestState
	lastError string
	recent    []string
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithOnChange registers fn to receive a snapshot after every mutation of
// the message log. fn runs outside the manager's lock, possibly on the
// request goroutine.
func WithOnChange(fn func(State)) Option {
	return func(m *Manager) { m.onChange = fn }
}

// NewManager creates a conversation seeded with the bot greeting
func NewManager(asker Asker, recorder Recorder, opts ...Option) *Manager {
	m := &Manager{
		asker:     asker,
		recorder:  recorder,
		logger:    zap.NewNop().Sugar(),
		sessionID: uuid.New().String(),
		messages: []Message{
			{Text: Greeting, Sender: SenderBot},
		},
		request: Idle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.recent = recorder.List()
	return m
}

// State returns a snapshot of the conversation
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// SetInput replaces the input buffer
func (m *Manager) SetInput(text string) {
	m.mu.Lock()
	m.input = text
	m.mu.Unlock()
}

// Submit sends text as the user's next message. It is a no-op, returning
// false, when text is blank or a request is already in flight. Otherwise
// the user message is appended, the input cleared, the question recorded
// as recent, and the request started; the returned Pending resolves once
// the bot's reply (or error) has been appended.
func (m *Manager) Submit(ctx context.Context, text string) (*Pending, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	m.mu.Lock()
	if m.request == InFlight {
		m.mu.Unlock()
		m.logger.Debugw("Submission ignored while a request is in flight", "session", m.sessionID)
		return nil, false
	}

	m.messages = append(m.messages, Message{Text: text, Sender: SenderUser})
	m.input = ""
	m.request = InFlight
	m.lastError = ""
	m.recent = m.recorder.Record(ctx, text)

	reqCtx, cancel := context.WithCancel(ctx)
	p := newPending(cancel)
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Infow("Question submitted", "session", m.sessionID, "chars", len(text))
	m.notify(state)

	go m.run(reqCtx, p, text)
	return p, true
}

// run performs the request and appends its outcome
func (m *Manager) run(ctx context.Context, p *Pending, question string) {
	defer p.cancel()
	start := time.Now()

	reply, err := m.asker.Ask(ctx, question)

	var res Result
	m.mu.Lock()
	if err != nil {
		detail := errorText(err)
		res = Result{Reply: ErrorPrefix + detail, Err: err}
		m.lastError = detail
	} else {
		res = Result{Reply: reply}
	}
	m.messages = append(m.messages, Message{Text: res.Reply, Sender: SenderBot, Failed: err != nil})
	m.request = Idle
	state := m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warnw("Question failed", "session", m.sessionID, "error", err, "duration", time.Since(start))
	} else {
		m.logger.Infow("Question answered", "session", m.sessionID, "duration", time.Since(start))
	}

	m.notify(state)
	p.resolve(res)
}

func (m *Manager) notify(s State) {
	if m.onChange != nil {
		m.onChange(s)
	}
}

func (m *Manager) snapshotLocked() State {
	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)
	recent := make([]string, len(m.recent))
	copy(recent, m.recent)

	return State{
		SessionID: m.sessionID,
		Messages:  msgs,
		Input:     m.input,
		Request:   m.request,
		LastError: m.lastError,
		Recent:    recent,
	}
}

// errorText is the user-facing description of a failed request
func errorText(err error) string {
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return err.Error()
}
