package ui

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"askme/internal/chat"
	"askme/internal/logging"
	"askme/internal/recent"
)

type stubAsker struct {
	reply string
	gate  chan struct{}
}

func (a *stubAsker) Ask(ctx context.Context, q string) (string, error) {
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return a.reply, nil
}

func newTestModel(t *testing.T, asker chat.Asker, seed ...string) (Model, *chat.Manager) {
	t.Helper()
	cache := recent.NewCache(recent.NewMemoryStore(), logging.Nop())
	for i := len(seed) - 1; i >= 0; i-- {
		cache.Record(context.Background(), seed[i])
	}
	manager := chat.NewManager(asker, cache)

	m := NewModel(context.Background(), manager, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), manager
}

func typeText(m Model, text string) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(Model)
}

func resolve(t *testing.T, m Model) Model {
	t.Helper()
	if m.pending == nil {
		t.Fatal("no pending request")
	}
	done := make(chan chat.Result, 1)
	go func() { done <- m.pending.Wait() }()
	select {
	case res := <-done:
		updated, _ := m.Update(replyMsg{result: res})
		return updated.(Model)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not resolve")
		return m
	}
}

func TestModelSubmitAndReply(t *testing.T) {
	m, manager := newTestModel(t, &stubAsker{reply: "Paris"})

	m = typeText(m, "Capital of France?")
	if manager.State().Input != "Capital of France?" {
		t.Fatalf("manager input = %q", manager.State().Input)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a command waiting for the reply")
	}
	if m.input.Value() != "" {
		t.Fatalf("input not cleared: %q", m.input.Value())
	}

	m = resolve(t, m)

	state := manager.State()
	if len(state.Messages) != 3 || state.Messages[2].Text != "Paris" {
		t.Fatalf("messages = %v", state.Messages)
	}
	if m.pending != nil {
		t.Fatal("pending not cleared after reply")
	}
	if !strings.Contains(m.View(), "Paris") {
		t.Fatal("reply not rendered")
	}
}

func TestModelIgnoresBlankAndBusySubmits(t *testing.T) {
	gate := make(chan struct{})
	m, manager := newTestModel(t, &stubAsker{reply: "ok", gate: gate})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd != nil || len(manager.State().Messages) != 1 {
		t.Fatal("blank submit should be ignored")
	}

	m = typeText(m, "one")
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	m = typeText(m, "two")
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd != nil {
		t.Fatal("submit while in flight should be ignored")
	}
	if got := len(manager.State().Messages); got != 2 {
		t.Fatalf("messages = %d, want 2", got)
	}
	if m.input.Value() != "two" {
		t.Fatalf("ignored input should stay in the box, got %q", m.input.Value())
	}

	close(gate)
	resolve(t, m)
}

func TestModelTabCyclesRecentQuestions(t *testing.T) {
	m, manager := newTestModel(t, &stubAsker{reply: "ok"}, "newest", "older")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.input.Value() != "newest" {
		t.Fatalf("first tab = %q", m.input.Value())
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.input.Value() != "older" {
		t.Fatalf("second tab = %q", m.input.Value())
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.input.Value() != "newest" {
		t.Fatalf("third tab = %q", m.input.Value())
	}
	if manager.State().Input != "newest" {
		t.Fatalf("manager input = %q", manager.State().Input)
	}
	if !strings.Contains(m.View(), `"older"`) {
		t.Fatal("recent questions not shown")
	}
}

func TestModelEscCancelsInFlight(t *testing.T) {
	m, manager := newTestModel(t, &stubAsker{reply: "late", gate: make(chan struct{})})

	m = typeText(m, "slow question")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if cmd != nil {
		t.Fatal("esc with a request in flight should not quit")
	}

	m = resolve(t, m)
	msgs := manager.State().Messages
	if last := msgs[len(msgs)-1]; last.Text != "Error: request cancelled" {
		t.Fatalf("last message = %q", last.Text)
	}
}

func TestLineDisplayPlain(t *testing.T) {
	var buf bytes.Buffer
	d := NewLineDisplay(&buf, nil, false)
	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	d.PrintMessage(chat.Message{Text: "hi there", Sender: chat.SenderUser}, at)
	d.PrintMessage(chat.Message{Text: "Error: down", Sender: chat.SenderBot, Failed: true}, at)
	d.PrintRecent([]string{"a", "b"})

	out := buf.String()
	for _, want := range []string{"┌─ You · 15:04:05", "│ hi there", "┌─ AskMe · 15:04:05", "│ Error: down", "/1 a", "/2 b"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("plain display emitted ANSI codes")
	}
}

func TestLineDisplaySpinnerStops(t *testing.T) {
	var buf safeBuffer
	d := NewLineDisplay(&buf, nil, true)

	d.ShowSpinner("thinking")
	time.Sleep(20 * time.Millisecond)
	d.StopSpinner()
	d.StopSpinner()

	if !strings.Contains(buf.String(), "thinking") {
		t.Fatal("spinner never drew")
	}
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLineDisplayPaintsOnlyFailedMessages(t *testing.T) {
	var buf bytes.Buffer
	d := NewLineDisplay(&buf, nil, true)
	at := time.Now()

	d.PrintMessage(chat.Message{Text: "Error: Not Found is what the server prints", Sender: chat.SenderBot}, at)
	if strings.Contains(buf.String(), colorRed) {
		t.Fatal("successful reply painted as an error")
	}

	buf.Reset()
	d.PrintMessage(chat.Message{Text: "Error: down", Sender: chat.SenderBot, Failed: true}, at)
	if !strings.Contains(buf.String(), colorRed+"Error: down") {
		t.Fatalf("failed message not painted:\n%q", buf.String())
	}
}

func TestModelRendersFailedMessagesOnly(t *testing.T) {
	m, _ := newTestModel(t, &stubAsker{reply: "ok"})

	if got := m.renderMessage(chat.Message{Text: "Error: Not Found", Sender: chat.SenderBot}); strings.Contains(got, colorRed) {
		t.Fatalf("successful reply painted as an error: %q", got)
	}
	if got := m.renderMessage(chat.Message{Text: "Error: down", Sender: chat.SenderBot, Failed: true}); !strings.Contains(got, colorRed+"Error: down") {
		t.Fatalf("failed message not painted: %q", got)
	}
}
