// Package iu models remote incremental units mirrored by an input buffer.
package iu

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap/zapcore"
)

var (
	// ErrCommitted is returned when a payload or link update targets a committed unit.
	ErrCommitted = errors.New("unit is committed")
	// ErrRetracted is returned when a payload or link update targets a retracted unit.
	ErrRetracted = errors.New("unit is retracted")
)

// Payload types carried as an opaque label.
const (
	PayloadJSON = "JSON"
	PayloadStr  = "STR"
)

// Payload is the key/value content of a unit.
type Payload map[string]string

// Links maps a link type to a sorted set of unit ids.
type Links map[string][]string

// Clone returns a deep copy.
func (l Links) Clone() Links {
	if l == nil {
		return nil
	}
	out := make(Links, len(l))
	for k, v := range l {
		out[k] = slices.Clone(v)
	}
	return out
}

// Snapshot is a point in time copy of a unit's state.
type Snapshot struct {
	UID         string
	OwnerName   string
	Category    string
	PayloadType string
	ReadOnly    bool
	Revision    uint32
	Committed   bool
	Retracted   bool
	Payload     Payload
	Links       Links
}

// Unit is a locally mirrored remote unit. It is mutated in place by the input buffer
// so that holders of the pointer observe state transitions; all accessors return copies.
type Unit struct {
	uid         string
	ownerName   string
	category    string
	payloadType string
	readOnly    bool

	mu        sync.RWMutex
	revision  uint32
	committed bool
	retracted bool
	payload   Payload
	links     Links
}

// New creates a unit from a snapshot. Payload and links are copied.
func New(s Snapshot) *Unit {
	u := &Unit{
		uid:         s.UID,
		ownerName:   s.OwnerName,
		category:    s.Category,
		payloadType: s.PayloadType,
		readOnly:    s.ReadOnly,
		revision:    s.Revision,
		committed:   s.Committed,
		retracted:   s.Retracted,
		payload:     maps.Clone(s.Payload),
		links:       make(Links, len(s.Links)),
	}
	if u.payload == nil {
		u.payload = Payload{}
	}
	for typ, targets := range s.Links {
		u.links[typ] = normalize(targets)
	}
	return u
}

func (u *Unit) UID() string         { return u.uid }
func (u *Unit) OwnerName() string   { return u.ownerName }
func (u *Unit) Category() string    { return u.category }
func (u *Unit) PayloadType() string { return u.payloadType }
func (u *Unit) ReadOnly() bool      { return u.readOnly }

func (u *Unit) Revision() uint32 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.revision
}

func (u *Unit) Committed() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.committed
}

func (u *Unit) Retracted() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.retracted
}

// Payload returns a copy of the payload.
func (u *Unit) Payload() Payload {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return maps.Clone(u.payload)
}

// Get returns a single payload value.
func (u *Unit) Get(key string) (string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	v, ok := u.payload[key]
	return v, ok
}

// Links returns a copy of the link sets.
func (u *Unit) Links() Links {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.links.Clone()
}

// Snapshot returns a consistent copy of the whole unit.
func (u *Unit) Snapshot() Snapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return Snapshot{
		UID:         u.uid,
		OwnerName:   u.ownerName,
		Category:    u.category,
		PayloadType: u.payloadType,
		ReadOnly:    u.readOnly,
		Revision:    u.revision,
		Committed:   u.committed,
		Retracted:   u.retracted,
		Payload:     maps.Clone(u.payload),
		Links:       u.links.Clone(),
	}
}

// PayloadUpdate describes a payload mutation. A delta update removes KeysToRemove and
// then sets NewItems, a full update replaces the payload with NewItems.
type PayloadUpdate struct {
	Revision     uint32
	IsDelta      bool
	NewItems     map[string]string
	KeysToRemove []string
}

// LinkUpdate describes a link mutation. A delta update adds NewLinks and then removes
// LinksToRemove, a full update replaces all link sets with NewLinks.
type LinkUpdate struct {
	Revision      uint32
	IsDelta       bool
	NewLinks      Links
	LinksToRemove Links
}

func (u *Unit) checkLatches() error {
	switch {
	case u.retracted:
		return ErrRetracted
	case u.committed:
		return ErrCommitted
	}
	return nil
}

func (u *Unit) adoptRevision(rev uint32) {
	if rev > u.revision {
		u.revision = rev
	}
}

// ApplyPayloadUpdate applies the update unless the unit is committed or retracted.
func (u *Unit) ApplyPayloadUpdate(update PayloadUpdate) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.checkLatches(); err != nil {
		return err
	}
	if update.IsDelta {
		for _, k := range update.KeysToRemove {
			delete(u.payload, k)
		}
	} else {
		u.payload = make(Payload, len(update.NewItems))
	}
	maps.Copy(u.payload, update.NewItems)
	u.adoptRevision(update.Revision)
	return nil
}

// ApplyLinkUpdate applies the update unless the unit is committed or retracted.
func (u *Unit) ApplyLinkUpdate(update LinkUpdate) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.checkLatches(); err != nil {
		return err
	}
	if !update.IsDelta {
		u.links = make(Links, len(update.NewLinks))
	}
	for typ, targets := range update.NewLinks {
		u.links[typ] = normalize(append(slices.Clone(u.links[typ]), targets...))
	}
	for typ, targets := range update.LinksToRemove {
		current, ok := u.links[typ]
		if !ok {
			continue
		}
		current = slices.DeleteFunc(current, func(t string) bool {
			return slices.Contains(targets, t)
		})
		if len(current) == 0 {
			delete(u.links, typ)
		} else {
			u.links[typ] = current
		}
	}
	u.adoptRevision(update.Revision)
	return nil
}

// ApplyCommission sets the committed latch and adopts the owner assigned revision.
func (u *Unit) ApplyCommission(rev uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.committed = true
	u.revision = rev
}

// ApplyRetraction sets the retracted latch.
func (u *Unit) ApplyRetraction() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.retracted = true
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (u *Unit) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	s := u.Snapshot()
	enc.AddString("uid", s.UID)
	enc.AddString("owner", s.OwnerName)
	enc.AddString("category", s.Category)
	enc.AddUint32("revision", s.Revision)
	enc.AddBool("committed", s.Committed)
	enc.AddBool("retracted", s.Retracted)
	return enc.AddObject("payload", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		for _, k := range slices.Sorted(maps.Keys(s.Payload)) {
			enc.AddString(k, s.Payload[k])
		}
		return nil
	}))
}

func normalize(targets []string) []string {
	out := slices.Clone(targets)
	slices.Sort(out)
	return slices.Compact(out)
}
