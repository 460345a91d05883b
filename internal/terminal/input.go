package terminal

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// InputReader reads user input one line at a time
type InputReader struct {
	reader *bufio.Reader
}

// NewInputReader wraps r; pass os.Stdin for the terminal
func NewInputReader(r io.Reader) *InputReader {
	return &InputReader{reader: bufio.NewReader(r)}
}

// ReadLine reads a line of input from the user. The trailing newline is
// dropped; other whitespace is preserved. The last line of a stream that
// does not end in a newline is still returned.
func (in *InputReader) ReadLine() (string, error) {
	line, err := in.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// IsTerminal checks if both stdin and stdout are attached to a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Size returns the terminal width and height, or 80x24 when stdout is not a terminal
func Size() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return 80, 24 // defaults
	}
	return width, height
}
