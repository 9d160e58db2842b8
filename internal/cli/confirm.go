package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// lineReader delivers input lines on a channel so that a blocked read never
// holds up cancellation.
type lineReader struct {
	lines chan string
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{lines: make(chan string)}
	go func() {
		defer close(lr.lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lr.lines <- sc.Text()
		}
	}()
	return lr
}

// next returns the next line. ok is false at end of input or when ctx is done.
func (lr *lineReader) next(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-lr.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// syncWriter serializes writes from the chat loop and the alarm checker.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// promptConfirmer asks a yes/no question on the terminal.
type promptConfirmer struct {
	in  *lineReader
	out io.Writer
}

func (c promptConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [s/N] ", question)
	line, ok := c.in.next(ctx)
	if !ok {
		return false, ctx.Err()
	}
	return isYes(line), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

// yesConfirmer approves every prompt, for --yes.
type yesConfirmer struct{}

func (yesConfirmer) Confirm(context.Context, string) (bool, error) { return true, nil }
