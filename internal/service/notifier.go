package service

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// WriterNotifier prints notifications as single lines, for terminals.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "✓ %s\n", msg)
}

func (n *WriterNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "✗ %s\n", msg)
}

// LogNotifier sends notifications to the structured logger, for headless runs.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) { slog.Info(msg, "notification", "success") }
func (LogNotifier) Error(msg string)   { slog.Error(msg, "notification", "error") }
