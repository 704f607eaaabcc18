package session

import (
	"sync/atomic"

	"github.com/xushun007/agentcore/internal/model"
)

// EventBufferConfig sizes the two lanes of the egress event queue.
type EventBufferConfig struct {
	HighPriBuffer int
	LowPriBuffer  int
}

// DefaultEventBufferConfig returns sensible lane sizes.
func DefaultEventBufferConfig() EventBufferConfig {
	return EventBufferConfig{HighPriBuffer: 32, LowPriBuffer: 256}
}

// eventSink is the egress Event queue: a two-lane backpressure channel where
// lifecycle events always get through and high-volume, low-value events drop
// under load. Grounded on internal/agent/event_sink.go's BackpressureSink,
// adapted from the teacher's models.AgentEvent to model.Event/model.EventType
// — the only droppable type in the spec's closed EventType set is
// token_count, emitted on every turn and of no correctness consequence if lost.
type eventSink struct {
	highPri chan model.Event
	lowPri  chan model.Event
	merged  chan model.Event
	dropped uint64
	closed  uint32
}

func newEventSink(cfg EventBufferConfig) *eventSink {
	if cfg.HighPriBuffer <= 0 {
		cfg.HighPriBuffer = 32
	}
	if cfg.LowPriBuffer <= 0 {
		cfg.LowPriBuffer = 256
	}
	s := &eventSink{
		highPri: make(chan model.Event, cfg.HighPriBuffer),
		lowPri:  make(chan model.Event, cfg.LowPriBuffer),
		merged:  make(chan model.Event, cfg.HighPriBuffer),
	}
	go s.mergeLoop()
	return s
}

func (s *eventSink) mergeLoop() {
	defer close(s.merged)
	for {
		select {
		case e, ok := <-s.highPri:
			if ok {
				s.merged <- e
				continue
			}
			for e := range s.lowPri {
				s.merged <- e
			}
			return
		default:
		}

		select {
		case e, ok := <-s.highPri:
			if ok {
				s.merged <- e
			} else {
				for e := range s.lowPri {
					s.merged <- e
				}
				return
			}
		case e, ok := <-s.lowPri:
			if ok {
				s.merged <- e
			}
		}
	}
}

// emit routes an event through the appropriate lane. Non-droppable events
// block until buffer space frees up; droppable events are dropped and
// counted when the low-priority lane is full.
func (s *eventSink) emit(e model.Event) {
	if atomic.LoadUint32(&s.closed) == 1 {
		return
	}
	if isDroppableEvent(e.Msg.Type) {
		select {
		case s.lowPri <- e:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
		return
	}
	s.highPri <- e
}

// droppedCount returns the number of low-priority events dropped so far.
func (s *eventSink) droppedCount() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Close stops accepting new events and closes the merged output channel once
// both lanes have drained.
func (s *eventSink) Close() {
	if !atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		return
	}
	close(s.highPri)
	close(s.lowPri)
}

func isDroppableEvent(t model.EventType) bool {
	return t == model.EventTokenCount
}
