package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

type line struct {
	err  error
	text string
}

// LineReader reads terminal lines while honoring context cancellation. One
// goroutine owns the underlying reader, so a line typed after a canceled
// read is kept for the next call instead of being lost.
type LineReader struct {
	src   *bufio.Reader
	lines chan line
	start sync.Once
}

// NewLineReader creates a reader over r.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{
		src:   bufio.NewReader(r),
		lines: make(chan line),
	}
}

func (r *LineReader) pump() {
	for {
		text, err := r.src.ReadString('\n')
		if err != nil && text != "" && errors.Is(err, io.EOF) {
			// A final line without a newline comes before EOF.
			r.lines <- line{text: text}
		}
		if err != nil {
			r.lines <- line{err: err}
			close(r.lines)
			return
		}
		r.lines <- line{text: text}
	}
}

// ReadLine returns the next trimmed line.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.start.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case l, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}
