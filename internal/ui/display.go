package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"askme/internal/chat"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// LineDisplay prints the conversation as a scrolling transcript. It is used
// when stdin or stdout is not a terminal, or when plain mode is requested.
type LineDisplay struct {
	out      io.Writer
	markdown *Markdown
	color    bool

	mu          sync.Mutex
	spinnerStop chan struct{}
	spinnerDone chan struct{}
}

// NewLineDisplay creates a display writing to out. markdown may be nil.
func NewLineDisplay(out io.Writer, markdown *Markdown, color bool) *LineDisplay {
	return &LineDisplay{
		out:      out,
		markdown: markdown,
		color:    color,
	}
}

func (d *LineDisplay) paint(code, s string) string {
	if !d.color {
		return s
	}
	return code + s + colorReset
}

// PrintWelcome displays the header and available commands
func (d *LineDisplay) PrintWelcome(apiURL string) {
	fmt.Fprintln(d.out, d.paint(colorBold+colorCyan, "AskMe Bot"))
	fmt.Fprintln(d.out, d.paint(colorGray, "Your helpful AI assistant · "+apiURL))
	fmt.Fprintln(d.out, d.paint(colorGray, "Commands: /recent | /1 /2 /3 (ask a recent question) | /exit"))
	fmt.Fprintln(d.out)
}

// PrintMessage displays one chat message
func (d *LineDisplay) PrintMessage(msg chat.Message, timestamp time.Time) {
	stamp := timestamp.Format("15:04:05")
	if msg.Sender == chat.SenderUser {
		fmt.Fprintf(d.out, "%s\n", d.paint(colorGreen, "┌─ You · "+stamp))
		for _, line := range strings.Split(msg.Text, "\n") {
			fmt.Fprintf(d.out, "%s %s\n", d.paint(colorGray, "│"), line)
		}
		fmt.Fprintln(d.out, d.paint(colorGray, "└"))
		return
	}

	fmt.Fprintf(d.out, "%s\n", d.paint(colorBlue, "┌─ AskMe · "+stamp))
	body := msg.Text
	if msg.Failed {
		body = d.paint(colorRed, body)
	} else {
		body = d.markdown.Render(body)
	}
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(d.out, "%s %s\n", d.paint(colorGray, "│"), line)
	}
	fmt.Fprintln(d.out, d.paint(colorGray, "└"))
}

// PrintRecent lists the recent questions, numbered for the /N commands
func (d *LineDisplay) PrintRecent(recent []string) {
	if len(recent) == 0 {
		d.PrintInfo("No recent questions yet")
		return
	}
	fmt.Fprintln(d.out, d.paint(colorGray, "Your Recent Questions"))
	for i, q := range recent {
		fmt.Fprintf(d.out, "  %s %s\n", d.paint(colorCyan, fmt.Sprintf("/%d", i+1)), q)
	}
}

// PrintPrompt displays the user input prompt
func (d *LineDisplay) PrintPrompt() {
	fmt.Fprintf(d.out, "\n%s ", d.paint(colorBold+colorGreen, "❯"))
}

// PrintInfo displays info message
func (d *LineDisplay) PrintInfo(msg string) {
	fmt.Fprintln(d.out, d.paint(colorCyan, "ℹ "+msg))
}

// PrintWarning displays warning message
func (d *LineDisplay) PrintWarning(msg string) {
	fmt.Fprintln(d.out, d.paint(colorYellow, "⚠ "+msg))
}

// PrintGoodbye displays goodbye message
func (d *LineDisplay) PrintGoodbye() {
	fmt.Fprintln(d.out, d.paint(colorBold+colorCyan, "\nThank you for using AskMe! 👋"))
}

// ShowSpinner animates msg until StopSpinner is called. Without color the
// message is printed once.
func (d *LineDisplay) ShowSpinner(msg string) {
	d.StopSpinner()

	if !d.color {
		fmt.Fprintln(d.out, d.paint(colorDim, msg+"..."))
		return
	}

	d.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	d.spinnerStop, d.spinnerDone = stop, done
	d.mu.Unlock()

	go func() {
		defer close(done)
		spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(spinnerChars) {
			fmt.Fprintf(d.out, "\r%s%s %s%s", colorCyan, spinnerChars[i], msg, colorReset)
			select {
			case <-stop:
				// Clear the spinner line
				fmt.Fprint(d.out, "\r\033[2K\r")
				return
			case <-ticker.C:
			}
		}
	}()
}

// StopSpinner stops the currently active spinner and waits for it to clear
func (d *LineDisplay) StopSpinner() {
	d.mu.Lock()
	stop, done := d.spinnerStop, d.spinnerDone
	d.spinnerStop, d.spinnerDone = nil, nil
	d.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}
