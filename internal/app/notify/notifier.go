package notify

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Notifier surfaces messages to the person driving the upload.
type Notifier interface {
	// Warn reports a problem with the user's input.
	Warn(msg string)
	// Alert reports that the operation failed.
	Alert(msg string)
}

// ConsoleNotifier prints messages to a terminal.
type ConsoleNotifier struct {
	Out io.Writer
}

// NewConsoleNotifier creates a ConsoleNotifier writing to out, or to
// stderr when out is nil.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleNotifier{Out: out}
}

func (n *ConsoleNotifier) Warn(msg string) {
	fmt.Fprintf(n.Out, "⚠️  %s\n", msg)
}

func (n *ConsoleNotifier) Alert(msg string) {
	fmt.Fprintf(n.Out, "❌ %s\n", msg)
}

// Level tells a recorded warning from an alert.
type Level string

const (
	LevelWarn  Level = "warn"
	LevelAlert Level = "alert"
)

// Message is one notification captured by a Recorder.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Warn(msg string) {
	r.record(LevelWarn, msg)
}

func (r *Recorder) Alert(msg string) {
	r.record(LevelAlert, msg)
}

func (r *Recorder) record(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Messages returns all recorded notifications in order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
