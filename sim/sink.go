package sim

// Attr is one named value of an agent's observable state.
type Attr struct {
	Key   string
	Value any
}

// Record is a single observation emitted by an agent during Collect.
type Record struct {
	Replica int    // replica id stamped by WithReplica; 0 outside a batch
	Step    int    // environment steps completed when the record was emitted
	Index   int    // agent position in the population
	Kind    string // agent kind, e.g. "stock"
	Attrs   []Attr
}

// Value returns the value stored under key and whether it was present.
func (r Record) Value(key string) (any, bool) {
	for _, a := range r.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Sink is the external destination for records. Sinks shared between
// replicas must be safe for concurrent use.
type Sink interface {
	Write(rec Record) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(rec Record) error

// Write calls f(rec).
func (f SinkFunc) Write(rec Record) error { return f(rec) }

// Discard is a Sink that drops every record.
var Discard Sink = SinkFunc(func(Record) error { return nil })

// WithReplica returns a Sink that stamps every record with the replica id
// before forwarding it to sink.
func WithReplica(sink Sink, replica int) Sink {
	return SinkFunc(func(rec Record) error {
		rec.Replica = replica
		return sink.Write(rec)
	})
}

// Emitter is handed to Agent.Collect. The environment positions it so the
// agent only supplies its kind and attributes.
type Emitter interface {
	Emit(kind string, attrs ...Attr) error
}

type recordEmitter struct {
	sink  Sink
	step  int
	index int
}

func (e recordEmitter) Emit(kind string, attrs ...Attr) error {
	return e.sink.Write(Record{
		Step:  e.step,
		Index: e.index,
		Kind:  kind,
		Attrs: attrs,
	})
}
