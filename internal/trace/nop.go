package trace

type nopTracer struct{}

func (nopTracer) Emit(*Event)     {}
func (nopTracer) Flush() error    { return nil }
func (nopTracer) Close() error    { return nil }
func (nopTracer) Level() Level    { return LevelOff }
func (nopTracer) Enabled() bool   { return false }
func (nopTracer) Session() string { return "" }

// Nop discards everything.
var Nop Tracer = nopTracer{}

// RingOf returns the ring buffer behind t, if it has one.
func RingOf(t Tracer) *RingTracer {
	switch tr := t.(type) {
	case *RingTracer:
		return tr
	case *MultiTracer:
		return tr.Ring()
	}
	return nil
}
