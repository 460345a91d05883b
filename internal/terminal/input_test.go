package terminal

import (
	"io"
	"strings"
	"testing"
)

func TestReadLine(t *testing.T) {
	in := NewInputReader(strings.NewReader("first\r\n  second  \nlast"))

	for _, want := range []string{"first", "  second  ", "last"} {
		got, err := in.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if got != want {
			t.Fatalf("ReadLine = %q, want %q", got, want)
		}
	}

	if _, err := in.ReadLine(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}
