package emit

import (
	"context"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
)

type EventType string

const (
	EventPlacement EventType = "placement"
	// EventRestart tells consumers to drop everything received so far.
	EventRestart EventType = "restart"
	EventDone    EventType = "done"
)

// Event is one streamed solver update.
type Event struct {
	Type      EventType      `json:"type"`
	Placement *Placement     `json:"placement,omitempty"`
	Attempt   int            `json:"attempt,omitempty"`
	Seed      int64          `json:"seed,omitempty"`
	Result    *solver.Result `json:"result,omitempty"`
}

// Stream forwards solver events as placements. It implements solver.Observer.
type Stream struct {
	cat    *catalog.Catalog
	layout Layout
	emit   func(Event)
}

var _ solver.Observer = (*Stream)(nil)

// NewStream calls fn for every event, on the goroutine driving the solver.
func NewStream(cat *catalog.Catalog, layout Layout, fn func(Event)) *Stream {
	return &Stream{cat: cat, layout: layout, emit: fn}
}

// NewChannelStream delivers events to ch. Sends block until the consumer
// reads or ctx ends, after which events are dropped.
func NewChannelStream(ctx context.Context, cat *catalog.Catalog, layout Layout, ch chan<- Event) *Stream {
	return NewStream(cat, layout, func(ev Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	})
}

func (s *Stream) Resolved(c grid.Coord, piece int) {
	p := s.layout.Place(s.cat, c, piece)
	s.emit(Event{Type: EventPlacement, Placement: &p})
}

func (s *Stream) Restarted(attempt int, seed int64) {
	s.emit(Event{Type: EventRestart, Attempt: attempt, Seed: seed})
}

// Done publishes the final result.
func (s *Stream) Done(result *solver.Result) {
	s.emit(Event{Type: EventDone, Seed: result.Seed, Result: result})
}
