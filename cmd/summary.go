package cmd

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/agentsim/agentsim/sim"
	"github.com/agentsim/agentsim/sim/batch"
)

// summary accumulates numeric attributes from terminal observations, grouped
// by kind, optional "name" attribute and key.
type summary struct {
	mu     sync.Mutex
	values map[string][]float64
}

func newSummary() *summary {
	return &summary{values: make(map[string][]float64)}
}

func (s *summary) Write(rec sim.Record) error {
	prefix := rec.Kind
	if name, ok := rec.Value("name"); ok {
		prefix = fmt.Sprintf("%s[%v]", rec.Kind, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range rec.Attrs {
		var v float64
		switch x := a.Value.(type) {
		case float64:
			v = x
		case int:
			v = float64(x)
		default:
			continue
		}
		key := prefix + "." + a.Key
		s.values[key] = append(s.values[key], v)
	}
	return nil
}

// Print writes one line per attribute: count, mean, std dev, min and max.
func (s *summary) Print(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		vals := s.values[k]
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			std = 0 // sample std dev is undefined for one value
		}
		fmt.Fprintf(w, "%-24s n=%s mean=%s std=%s min=%s max=%s\n", k,
			humanize.Comma(int64(len(vals))),
			humanize.CommafWithDigits(mean, 4),
			humanize.CommafWithDigits(std, 4),
			humanize.CommafWithDigits(floats.Min(vals), 4),
			humanize.CommafWithDigits(floats.Max(vals), 4))
	}
}

// tee forwards every record to each sink in order, stopping at the first error.
func tee(sinks ...sim.Sink) sim.Sink {
	return sim.SinkFunc(func(rec sim.Record) error {
		for _, s := range sinks {
			if err := s.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// printReport writes the batch outcome.
func printReport(w io.Writer, report *batch.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(w, "batch %s: %s/%s replicas done, %s failed, %s waves, %d workers, %v\n",
		report.ID,
		humanize.Comma(int64(report.Count(batch.StateDone))),
		humanize.Comma(int64(report.Config.Runs)),
		humanize.Comma(int64(report.Count(batch.StateFailed))),
		humanize.Comma(int64(report.Waves)),
		report.Workers,
		report.Duration().Round(time.Millisecond))
	for _, f := range report.Failures() {
		fmt.Fprintf(w, "  replica %d: %v\n", f.ID, f.Err)
	}
}
