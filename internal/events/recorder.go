package events

import (
	"context"
	"encoding/json"
	"sync"
)

// Recorder is an in-memory Publisher that keeps everything it is given.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
	Keys   []string
	Err    error
}

func (r *Recorder) Publish(_ context.Context, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	var e Event
	switch v := event.(type) {
	case Event:
		e = v
	case *Event:
		e = *v
	default:
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		e = Event{Data: data}
	}
	r.Keys = append(r.Keys, key)
	r.Events = append(r.Events, e)
	return nil
}

// Types returns the event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.EventType
	}
	return out
}
