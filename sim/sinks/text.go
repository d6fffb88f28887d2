package sinks

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/agentsim/agentsim/sim"
)

// Text writes one human-readable line per record:
//
//	{name: "AAPL", price: 182.31}
//
// With metadata enabled the replica, step and index lead the line.
type Text struct {
	mu       sync.Mutex
	w        io.Writer
	metadata bool
}

// NewText creates a Text sink writing to w.
func NewText(w io.Writer, metadata bool) *Text {
	return &Text{w: w, metadata: metadata}
}

// Open writes the opening bracket of the record list.
func (t *Text) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, "[\n")
	return err
}

// Close writes the closing bracket of the record list.
func (t *Text) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, "]\n")
	return err
}

// Write formats rec as a single line.
func (t *Text) Write(rec sim.Record) error {
	var b strings.Builder
	b.WriteString("\t{")
	sep := ""
	if t.metadata {
		fmt.Fprintf(&b, "replica: %d, step: %d, index: %d, kind: %q", rec.Replica, rec.Step, rec.Index, rec.Kind)
		sep = ", "
	}
	for _, a := range rec.Attrs {
		b.WriteString(sep)
		sep = ", "
		if s, ok := a.Value.(string); ok {
			fmt.Fprintf(&b, "%s: %q", a.Key, s)
		} else {
			fmt.Fprintf(&b, "%s: %v", a.Key, a.Value)
		}
	}
	b.WriteString("}\n")

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return fmt.Errorf("writing text record: %w", err)
	}
	return nil
}
