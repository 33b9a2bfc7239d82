package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/reimburse-api/internal/events"
)

// RecordingEmitter implements events.EventEmitter and keeps every emitted event.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event

	// Err, when set, is returned from EmitEvent after recording.
	Err error
}

var _ events.EventEmitter = (*RecordingEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (r *RecordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns the recorded events in emission order.
func (r *RecordingEmitter) Events() []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of each recorded event in emission order.
func (r *RecordingEmitter) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}
