package model

import (
	"errors"
	"fmt"
)

// EventType tags a service event.
type EventType string

// Known service event types.
const (
	EventSunday  EventType = "sunday"
	EventMidweek EventType = "midweek"
	EventSpecial EventType = "special"
)

// ErrInvalidEventType is returned by ServiceEvent.Validate.
var ErrInvalidEventType = errors.New("invalid event type")

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventSunday, EventMidweek, EventSpecial:
		return true
	}
	return false
}

// ServiceEvent is a church service occurrence.
type ServiceEvent struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	Date     string    `json:"date"`
	Location string    `json:"location"`
	BranchID string    `json:"branch_id,omitempty"`
}

// Validate checks the event type.
func (e ServiceEvent) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEventType, e.Type)
	}
	return nil
}

// ServiceEventFromFields normalizes a store row into a ServiceEvent.
func ServiceEventFromFields(id string, f map[string]any) ServiceEvent {
	return ServiceEvent{
		ID:       id,
		Type:     EventType(text(f, FieldEventType)),
		Date:     text(f, FieldEventDate),
		Location: text(f, FieldEventLocation),
		BranchID: FirstLink(f, FieldBranch),
	}
}

// Fields returns the store field map for creating e.
func (e ServiceEvent) Fields() map[string]any {
	f := map[string]any{
		FieldEventType:     string(e.Type),
		FieldEventDate:     e.Date,
		FieldEventLocation: e.Location,
	}
	if e.BranchID != "" {
		f[FieldBranch] = Link(e.BranchID)
	}
	return f
}

// AttendanceRecord links one member to one service event.
// UserID is "" when the row has no linked member.
type AttendanceRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	EventID   string `json:"event_id"`
	Status    bool   `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AttendanceFromFields unwraps the relation arrays of an attendance row.
func AttendanceFromFields(id string, f map[string]any) AttendanceRecord {
	eventID := FirstLink(f, FieldAttendanceEvent)
	if eventID == "" {
		eventID = text(f, FieldAttendanceEventID)
	}
	return AttendanceRecord{
		ID:        id,
		UserID:    FirstLink(f, FieldAttendanceMember),
		EventID:   eventID,
		Status:    flag(f, FieldAttendanceStatus),
		Timestamp: text(f, FieldAttendanceTimestamp),
	}
}

// AttendanceFields builds the row that marks memberID present at eventID.
func AttendanceFields(memberID, eventID, timestamp string) map[string]any {
	return map[string]any{
		FieldAttendanceMember:    Link(memberID),
		FieldAttendanceEvent:     Link(eventID),
		FieldAttendanceStatus:    true,
		FieldAttendanceTimestamp: timestamp,
	}
}
