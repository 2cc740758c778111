package iu

import "strings"

// EventType is a bit mask of unit events. Handlers subscribe with a mask and receive
// every event whose bit is set in it.
type EventType uint8

const (
	Added EventType = 1 << iota
	Committed
	Deleted
	Retracted
	Updated
	LinksUpdated
	Message

	AllEvents = Added | Committed | Deleted | Retracted | Updated | LinksUpdated | Message
)

var eventNames = [...]string{"ADDED", "COMMITTED", "DELETED", "RETRACTED", "UPDATED", "LINKSUPDATED", "MESSAGE"}

// Has returns true if every bit of other is set in e.
func (e EventType) Has(other EventType) bool {
	return other != 0 && e&other == other
}

// String renders a single event by name and a mask as names joined by '|'.
func (e EventType) String() string {
	if e == 0 {
		return "NONE"
	}
	var parts []string
	for i, name := range eventNames {
		if e&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if e&^AllEvents != 0 {
		parts = append(parts, "UNKNOWN")
	}
	return strings.Join(parts, "|")
}
