// Package wire defines the messages exchanged on category topics and over the
// resend request call.
package wire

import (
	"errors"
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-iusync/codec"
)

// MethodResendRequest is the name of the remote method an owner serves to re-publish a unit.
const MethodResendRequest = "resendRequest"

// ErrUnknownKind is returned when decoding an event with an unknown tag.
var ErrUnknownKind = errors.New("unknown event kind")

// Kind is the one byte tag written in front of every event.
type Kind uint8

const (
	KindUnitAnnouncement Kind = iota + 1
	KindMessage
	KindPayloadUpdate
	KindLinkUpdate
	KindCommission
	KindRetraction
)

func (k Kind) String() string {
	switch k {
	case KindUnitAnnouncement:
		return "announcement"
	case KindMessage:
		return "message"
	case KindPayloadUpdate:
		return "payload_update"
	case KindLinkUpdate:
		return "link_update"
	case KindCommission:
		return "commission"
	case KindRetraction:
		return "retraction"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Event is one of UnitAnnouncement, Message, PayloadUpdate, LinkUpdate, Commission
// or Retraction. The set is closed.
type Event interface {
	scale.Encodable
	scale.Decodable
	Kind() Kind
	UnitID() string
	isEvent()
}

func (*UnitAnnouncement) Kind() Kind { return KindUnitAnnouncement }
func (*Message) Kind() Kind          { return KindMessage }
func (*PayloadUpdate) Kind() Kind    { return KindPayloadUpdate }
func (*LinkUpdate) Kind() Kind       { return KindLinkUpdate }
func (*Commission) Kind() Kind       { return KindCommission }
func (*Retraction) Kind() Kind       { return KindRetraction }

func (e *UnitAnnouncement) UnitID() string { return e.Unit.UID }
func (e *Message) UnitID() string          { return e.Unit.UID }
func (e *PayloadUpdate) UnitID() string    { return e.UID }
func (e *LinkUpdate) UnitID() string       { return e.UID }
func (e *Commission) UnitID() string       { return e.UID }
func (e *Retraction) UnitID() string       { return e.UID }

func (*UnitAnnouncement) isEvent() {}
func (*Message) isEvent()          {}
func (*PayloadUpdate) isEvent()    {}
func (*LinkUpdate) isEvent()       {}
func (*Commission) isEvent()       {}
func (*Retraction) isEvent()       {}

type envelope struct {
	Event Event
}

func (e *envelope) EncodeScale(enc *scale.Encoder) (int, error) {
	var total int
	{
		n, err := scale.EncodeByte(enc, byte(e.Event.Kind()))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := e.Event.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (e *envelope) DecodeScale(dec *scale.Decoder) (int, error) {
	var total int
	typ, n, err := scale.DecodeByte(dec)
	if err != nil {
		return total, err
	}
	total += n
	switch Kind(typ) {
	case KindUnitAnnouncement:
		e.Event = &UnitAnnouncement{}
	case KindMessage:
		e.Event = &Message{}
	case KindPayloadUpdate:
		e.Event = &PayloadUpdate{}
	case KindLinkUpdate:
		e.Event = &LinkUpdate{}
	case KindCommission:
		e.Event = &Commission{}
	case KindRetraction:
		e.Event = &Retraction{}
	default:
		return total, fmt.Errorf("%w: %d", ErrUnknownKind, typ)
	}
	n, err = e.Event.DecodeScale(dec)
	total += n
	if err != nil {
		return total, fmt.Errorf("%s: %w", Kind(typ), err)
	}
	return total, nil
}

// Encode writes the event tag followed by the event body.
func Encode(ev Event) ([]byte, error) {
	return codec.Encode(&envelope{Event: ev})
}

// MustEncode is Encode for events known to be within limits.
func MustEncode(ev Event) []byte {
	return codec.MustEncode(&envelope{Event: ev})
}

// Decode reads an event written by Encode.
func Decode(buf []byte) (Event, error) {
	var env envelope
	if err := codec.Decode(buf, &env); err != nil {
		return nil, err
	}
	return env.Event, nil
}
