package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType doubles as the routing key on the exchange.
type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventUpdated EventType = "transaction.updated"
	EventDeleted EventType = "transaction.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// Event is a lightweight change notice. It carries only the id; consumers
// fetch the record from the store if they need it.
type Event struct {
	Type       EventType `json:"type"`
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(t EventType, id string) Event {
	return Event{Type: t, ID: id, OccurredAt: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON parses and checks an event body.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if !e.Type.Valid() {
		return Event{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.ID == "" {
		return Event{}, fmt.Errorf("event %s without id", e.Type)
	}
	return e, nil
}
