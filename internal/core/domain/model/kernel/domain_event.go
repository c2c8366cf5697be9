package kernel

// DomainEvent is a fact raised by an aggregate. Events are published only after
// the transaction that produced them has committed.
type DomainEvent interface {
	EventName() string
}

// EventRecorder is embedded by aggregates that raise domain events.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Raise(event DomainEvent) {
	r.pending = append(r.pending, event)
}

// DomainEvents returns the events raised since the last ClearDomainEvents.
func (r *EventRecorder) DomainEvents() []DomainEvent {
	return r.pending
}

func (r *EventRecorder) ClearDomainEvents() {
	r.pending = nil
}
