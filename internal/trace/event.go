package trace

import (
	"sync/atomic"
	"time"
)

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	}
	return "unknown"
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	Session  string
	SpanID   uint64
	ParentID uint64
	Name     string // e.g. "parse", "codegen", "unit:main"
	Detail   string
	Extra    map[string]string
}

var (
	seq   atomic.Uint64
	spans atomic.Uint64
)

// NextSeq returns a process-wide increasing sequence number.
func NextSeq() uint64 { return seq.Add(1) }

// NextSpanID returns a fresh span id.
func NextSpanID() uint64 { return spans.Add(1) }
