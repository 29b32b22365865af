package registry

import "time"

// Action is the kind of a history event.
type Action string

const (
	ActionAlloc  Action = "alloc"
	ActionFree   Action = "free"
	ActionUpdate Action = "update"
)

// Event is one entry in the history log.
type Event struct {
	Action Action    `json:"action"`
	Type   string    `json:"type"`
	Bytes  int64     `json:"bytes"`
	Label  string    `json:"label,omitempty"`
	Time   time.Time `json:"time"`
}

// HistoryEnabled reports whether the registry records events.
func (r *Registry) HistoryEnabled() bool { return r.history != nil }

// History returns recorded events, oldest first. An empty resourceType
// returns events of every type. It returns nil when history is disabled.
func (r *Registry) History(resourceType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.historyLocked(resourceType)
}

func (r *Registry) historyLocked(resourceType string) []Event {
	if r.history == nil {
		return nil
	}
	out := make([]Event, 0, r.history.Len())
	for el := r.history.Front(); el != nil; el = el.Next() {
		ev := el.Value.(Event)
		if resourceType == "" || ev.Type == resourceType {
			out = append(out, ev)
		}
	}
	return out
}

// recordLocked appends an event and drops the oldest beyond the limit.
// Caller must hold mu.
func (r *Registry) recordLocked(action Action, e *entry) {
	if r.history == nil {
		return
	}
	r.history.PushBack(Event{
		Action: action,
		Type:   e.typ,
		Bytes:  e.bytes,
		Label:  e.label,
		Time:   r.clock.Now(),
	})
	for r.history.Len() > r.historyLimit {
		r.history.Remove(r.history.Front())
	}
}
