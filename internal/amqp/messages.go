package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types carried on the schedule queue.
const (
	EventScheduleSync = "schedule.sync"
	EventBillDelete   = "bill.delete"
)

// ScheduleEvent is a lightweight message about a bill's occurrence schedule.
// It carries only the bill id and version; the export worker reloads the full
// schedule from the database before mirroring it.
type ScheduleEvent struct {
	Type      string    `json:"type"`
	BillID    int64     `json:"bill_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewScheduleSyncEvent builds a sync event for a freshly (re)generated schedule.
func NewScheduleSyncEvent(billID, version int64) *ScheduleEvent {
	return &ScheduleEvent{
		Type:      EventScheduleSync,
		BillID:    billID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewBillDeleteEvent builds a delete event for a removed bill.
func NewBillDeleteEvent(billID int64) *ScheduleEvent {
	return &ScheduleEvent{
		Type:      EventBillDelete,
		BillID:    billID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *ScheduleEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ScheduleEventFromJSON parses an event from JSON bytes and rejects unknown
// event types so a bad producer can't poison the queue silently.
func ScheduleEventFromJSON(data []byte) (*ScheduleEvent, error) {
	var event ScheduleEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	switch event.Type {
	case EventScheduleSync, EventBillDelete:
	default:
		return nil, fmt.Errorf("unknown event type: %q", event.Type)
	}
	return &event, nil
}
