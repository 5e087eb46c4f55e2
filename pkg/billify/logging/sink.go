package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gookit/color"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const greyColor = 8

type sink interface {
	write(e *entry, line []byte)
	close() error
}

// consoleSink writes either raw JSON lines or a human readable rendering of a record.
type consoleSink struct {
	out    io.Writer
	errOut io.Writer
	pretty bool
	colors bool
	lock   chan struct{}
}

func newConsoleSink(out, errOut io.Writer, pretty bool) *consoleSink {
	return &consoleSink{
		out:    out,
		errOut: errOut,
		pretty: pretty,
		colors: pretty && checkIfTerminal(out),
		lock:   make(chan struct{}, 1),
	}
}

func (s *consoleSink) write(e *entry, line []byte) {
	out := s.out
	if e.Level >= ERROR {
		out = s.errOut
	}

	// a record spans several writes, so concurrent records would interleave
	s.lock <- struct{}{}
	defer func() {
		<-s.lock
	}()

	if !s.pretty {
		_, _ = out.Write(append(line, '\n'))

		return
	}

	s.prettyPrint(e, out)
}

func (s *consoleSink) prettyPrint(e *entry, out io.Writer) {
	lvl := e.Level.String()
	if len(lvl) > 4 {
		lvl = lvl[0:4]
	}

	fmt.Fprintf(out, "%s [%s]", s.paint(e.Level.color(), lvl), e.Time.Format(time.TimeOnly))

	if id, ok := e.Fields[fieldRequestID].(string); ok {
		fmt.Fprintf(out, " %s", s.paint(greyColor, id))
	}

	fmt.Fprintf(out, " %v\n", e.Message)

	keys := make([]string, 0, len(e.Fields))

	for k := range e.Fields {
		if k == fieldRequestID || k == fieldCorrelationID {
			continue
		}

		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		s.printField(out, k, e.Fields[k])
	}
}

func (s *consoleSink) printField(out io.Writer, key string, value any) {
	m, ok := value.(map[string]any)
	if !ok {
		fmt.Fprintf(out, "%15s: %s\n", key, compact(value))

		return
	}

	stack, hasStack := m["stack"].(string)
	if !hasStack {
		fmt.Fprintf(out, "%15s: %s\n", key, compact(value))

		return
	}

	rest := make(map[string]any, len(m))

	for k, v := range m {
		if k != "stack" {
			rest[k] = v
		}
	}

	fmt.Fprintf(out, "%15s: %s\n%s\n", key, compact(rest), s.paint(greyColor, stack))
}

func (s *consoleSink) paint(code uint8, text string) string {
	if !s.colors {
		return text
	}

	return color.C256(code).Sprint(text)
}

func (*consoleSink) close() error {
	return nil
}

func compact(v any) string {
	if str, ok := v.(string); ok {
		return str
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(b)
}

func checkIfTerminal(w io.Writer) bool {
	switch v := w.(type) {
	case *os.File:
		return term.IsTerminal(int(v.Fd()))
	default:
		return false
	}
}

// fileSink appends JSON lines to <dir>/<name>.log. The file is rotated when it grows
// past its size limit and at every local midnight.
type fileSink struct {
	mu     sync.Mutex
	out    *lumberjack.Logger
	timer  *time.Timer
	closed bool
}

func newFileSink(dir, name string, maxSizeMB, maxBackups, maxAgeDays int) *fileSink {
	s := &fileSink{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(dir, name+".log"),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			LocalTime:  true,
		},
	}

	s.mu.Lock()
	s.scheduleRotation(time.Now())
	s.mu.Unlock()

	return s
}

// scheduleRotation must be called with mu held.
func (s *fileSink) scheduleRotation(now time.Time) {
	s.timer = time.AfterFunc(untilMidnight(now), s.rotate)
}

func (s *fileSink) rotate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	_ = s.out.Rotate()

	s.scheduleRotation(time.Now())
}

func (s *fileSink) write(_ *entry, line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	_, _ = s.out.Write(append(line, '\n'))
}

func (s *fileSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.timer.Stop()

	return s.out.Close()
}

func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()

	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Sub(now)
}
