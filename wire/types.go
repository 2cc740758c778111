package wire

import (
	"maps"
	"slices"

	"github.com/spacemeshos/go-iusync/iu"
)

const (
	maxNameLen     = 1024
	maxValueLen    = 1 << 20
	maxItems       = 4096
	maxLinkTypes   = 256
	maxLinkTargets = 4096
	maxBodyLen     = 8 << 20
)

// Item is a single payload entry.
type Item struct {
	Key   string
	Value string
}

// LinkSet is the set of targets of one link type.
type LinkSet struct {
	Type    string
	Targets []string
}

// UnitState is the full state of a unit as published by its owner.
type UnitState struct {
	UID         string
	Revision    uint32
	Category    string
	PayloadType string
	OwnerName   string
	Committed   bool
	ReadOnly    bool
	Payload     []Item
	Links       []LinkSet
}

// UnitAnnouncement publishes a new durable unit, or its full state in reply to a resend request.
type UnitAnnouncement struct {
	Unit UnitState
}

// Message publishes a transient unit.
type Message struct {
	Unit UnitState
}

// PayloadUpdate mutates the payload of a known unit.
type PayloadUpdate struct {
	UID          string
	Revision     uint32
	Writer       string
	IsDelta      bool
	NewItems     []Item
	KeysToRemove []string
	PayloadType  string
}

// LinkUpdate mutates the link sets of a known unit.
type LinkUpdate struct {
	UID           string
	Revision      uint32
	Writer        string
	IsDelta       bool
	NewLinks      []LinkSet
	LinksToRemove []LinkSet
}

// Commission commits a unit.
type Commission struct {
	UID      string
	Revision uint32
	Writer   string
}

// Retraction retracts a unit.
type Retraction struct {
	UID      string
	Revision uint32
	Writer   string
}

// ResendRequest asks the owner of UID to re-publish it on HiddenScopeName.
type ResendRequest struct {
	UID             string
	HiddenScopeName string
}

// RevisionReply answers a ResendRequest. Zero means the owner could not satisfy it.
type RevisionReply struct {
	Revision uint32
}

// Call is the request body of a remote method invocation.
type Call struct {
	Method string
	Body   []byte
}

// Snapshot converts the state into the local unit representation.
func (s *UnitState) Snapshot() iu.Snapshot {
	return iu.Snapshot{
		UID:         s.UID,
		OwnerName:   s.OwnerName,
		Category:    s.Category,
		PayloadType: s.PayloadType,
		ReadOnly:    s.ReadOnly,
		Revision:    s.Revision,
		Committed:   s.Committed,
		Payload:     ItemsToMap(s.Payload),
		Links:       LinksToMap(s.Links),
	}
}

// StateFromSnapshot is the inverse of UnitState.Snapshot.
func StateFromSnapshot(s iu.Snapshot) UnitState {
	return UnitState{
		UID:         s.UID,
		Revision:    s.Revision,
		Category:    s.Category,
		PayloadType: s.PayloadType,
		OwnerName:   s.OwnerName,
		Committed:   s.Committed,
		ReadOnly:    s.ReadOnly,
		Payload:     ItemsFromMap(s.Payload),
		Links:       LinksFromMap(s.Links),
	}
}

// Update converts the event into a unit mutation.
func (e *PayloadUpdate) Update() iu.PayloadUpdate {
	return iu.PayloadUpdate{
		Revision:     e.Revision,
		IsDelta:      e.IsDelta,
		NewItems:     ItemsToMap(e.NewItems),
		KeysToRemove: e.KeysToRemove,
	}
}

// Update converts the event into a unit mutation.
func (e *LinkUpdate) Update() iu.LinkUpdate {
	return iu.LinkUpdate{
		Revision:      e.Revision,
		IsDelta:       e.IsDelta,
		NewLinks:      LinksToMap(e.NewLinks),
		LinksToRemove: LinksToMap(e.LinksToRemove),
	}
}

// ItemsFromMap returns payload entries sorted by key.
func ItemsFromMap(m map[string]string) []Item {
	if len(m) == 0 {
		return nil
	}
	items := make([]Item, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		items = append(items, Item{Key: k, Value: m[k]})
	}
	return items
}

// ItemsToMap collects entries into a map, later keys win.
func ItemsToMap(items []Item) map[string]string {
	m := make(map[string]string, len(items))
	for _, item := range items {
		m[item.Key] = item.Value
	}
	return m
}

// LinksFromMap returns link sets sorted by type.
func LinksFromMap(links iu.Links) []LinkSet {
	if len(links) == 0 {
		return nil
	}
	out := make([]LinkSet, 0, len(links))
	for _, typ := range slices.Sorted(maps.Keys(links)) {
		out = append(out, LinkSet{Type: typ, Targets: slices.Clone(links[typ])})
	}
	return out
}

// LinksToMap merges link sets into a map keyed by link type.
func LinksToMap(sets []LinkSet) iu.Links {
	links := make(iu.Links, len(sets))
	for _, set := range sets {
		links[set.Type] = append(links[set.Type], set.Targets...)
	}
	return links
}
