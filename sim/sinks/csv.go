package sinks

import (
	"fmt"
	"io"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/agentsim/agentsim/sim"
)

// CSVRow is one attribute of one record in long format.
type CSVRow struct {
	Replica int    `csv:"replica"`
	Step    int    `csv:"step"`
	Index   int    `csv:"index"`
	Kind    string `csv:"kind"`
	Key     string `csv:"key"`
	Value   string `csv:"value"`
}

// CSV writes records in long format, one row per attribute. The header is
// written with the first record.
type CSV struct {
	mu            sync.Mutex
	w             io.Writer
	headerWritten bool
}

// NewCSV creates a CSV sink writing to w.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: w}
}

// Write appends the rows for rec. A record without attributes produces a
// single row with an empty key so that it is still visible.
func (c *CSV) Write(rec sim.Record) error {
	rows := make([]CSVRow, 0, max(len(rec.Attrs), 1))
	for _, a := range rec.Attrs {
		rows = append(rows, CSVRow{
			Replica: rec.Replica,
			Step:    rec.Step,
			Index:   rec.Index,
			Kind:    rec.Kind,
			Key:     a.Key,
			Value:   fmt.Sprint(a.Value),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, CSVRow{Replica: rec.Replica, Step: rec.Step, Index: rec.Index, Kind: rec.Kind})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.headerWritten {
		if err := gocsv.Marshal(rows, c.w); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, c.w); err != nil {
		return fmt.Errorf("writing csv record: %w", err)
	}
	return nil
}
