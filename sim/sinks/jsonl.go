package sinks

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/agentsim/agentsim/sim"
)

// jsonRecord is the wire shape of one JSON Lines record.
type jsonRecord struct {
	Replica int            `json:"replica"`
	Step    int            `json:"step"`
	Index   int            `json:"index"`
	Kind    string         `json:"kind"`
	Attrs   map[string]any `json:"attrs"`
}

// JSONLines writes one JSON object per record.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines creates a JSONLines sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Write encodes rec.
func (j *JSONLines) Write(rec sim.Record) error {
	out := jsonRecord{
		Replica: rec.Replica,
		Step:    rec.Step,
		Index:   rec.Index,
		Kind:    rec.Kind,
		Attrs:   make(map[string]any, len(rec.Attrs)),
	}
	for _, a := range rec.Attrs {
		out.Attrs[a.Key] = a.Value
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(out); err != nil {
		return fmt.Errorf("writing json record: %w", err)
	}
	return nil
}
