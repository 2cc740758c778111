package wire

import (
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-iusync/codec"
)

func encodeBool(enc *scale.Encoder, v bool) (int, error) {
	var b byte
	if v {
		b = 1
	}
	return scale.EncodeByte(enc, b)
}

func decodeBool(dec *scale.Decoder) (bool, int, error) {
	b, n, err := scale.DecodeByte(dec)
	if err != nil {
		return false, n, err
	}
	if b > 1 {
		return false, n, fmt.Errorf("invalid bool value %d", b)
	}
	return b == 1, n, nil
}

func (t *Item) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStringWithLimit(enc, t.Key, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStringWithLimit(enc, t.Value, maxValueLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *Item) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Key = field
	}
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxValueLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Value = field
	}
	return total, nil
}

func (t *LinkSet) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStringWithLimit(enc, t.Type, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := codec.EncodeStringSlice(enc, t.Targets, maxLinkTargets, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *LinkSet) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Type = field
	}
	{
		field, n, err := codec.DecodeStringSlice(dec, maxLinkTargets, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Targets = field
	}
	return total, nil
}

func encodeItems(enc *scale.Encoder, items []Item) (int, error) {
	if len(items) > maxItems {
		return 0, fmt.Errorf("%w: %d payload items", codec.ErrTooManyElements, len(items))
	}
	total, err := scale.EncodeCompact32(enc, uint32(len(items)))
	if err != nil {
		return total, err
	}
	for i := range items {
		n, err := items[i].EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func decodeItems(dec *scale.Decoder) ([]Item, int, error) {
	length, total, err := scale.DecodeCompact32(dec)
	if err != nil {
		return nil, total, err
	}
	if length > maxItems {
		return nil, total, fmt.Errorf("%w: %d payload items", codec.ErrTooManyElements, length)
	}
	if length == 0 {
		return nil, total, nil
	}
	items := make([]Item, length)
	for i := range items {
		n, err := items[i].DecodeScale(dec)
		if err != nil {
			return nil, total, err
		}
		total += n
	}
	return items, total, nil
}

func encodeLinkSets(enc *scale.Encoder, sets []LinkSet) (int, error) {
	if len(sets) > maxLinkTypes {
		return 0, fmt.Errorf("%w: %d link types", codec.ErrTooManyElements, len(sets))
	}
	total, err := scale.EncodeCompact32(enc, uint32(len(sets)))
	if err != nil {
		return total, err
	}
	for i := range sets {
		n, err := sets[i].EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func decodeLinkSets(dec *scale.Decoder) ([]LinkSet, int, error) {
	length, total, err := scale.DecodeCompact32(dec)
	if err != nil {
		return nil, total, err
	}
	if length > maxLinkTypes {
		return nil, total, fmt.Errorf("%w: %d link types", codec.ErrTooManyElements, length)
	}
	if length == 0 {
		return nil, total, nil
	}
	sets := make([]LinkSet, length)
	for i := range sets {
		n, err := sets[i].DecodeScale(dec)
		if err != nil {
			return nil, total, err
		}
		total += n
	}
	return sets, total, nil
}

func (t *UnitState) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStringWithLimit(enc, t.UID, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(enc, t.Revision)
		if err != nil {
			return total, err
		}
		total += n
	}
	for _, s := range []string{t.Category, t.PayloadType, t.OwnerName} {
		n, err := scale.EncodeStringWithLimit(enc, s, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	for _, b := range []bool{t.Committed, t.ReadOnly} {
		n, err := encodeBool(enc, b)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := encodeItems(enc, t.Payload)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := encodeLinkSets(enc, t.Links)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *UnitState) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		t.UID = field
	}
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Revision = field
	}
	for _, dst := range []*string{&t.Category, &t.PayloadType, &t.OwnerName} {
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		*dst = field
	}
	for _, dst := range []*bool{&t.Committed, &t.ReadOnly} {
		field, n, err := decodeBool(dec)
		if err != nil {
			return total, err
		}
		total += n
		*dst = field
	}
	{
		field, n, err := decodeItems(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Payload = field
	}
	{
		field, n, err := decodeLinkSets(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Links = field
	}
	return total, nil
}

func (t *UnitAnnouncement) EncodeScale(enc *scale.Encoder) (int, error) {
	return t.Unit.EncodeScale(enc)
}

func (t *UnitAnnouncement) DecodeScale(dec *scale.Decoder) (int, error) {
	return t.Unit.DecodeScale(dec)
}

func (t *Message) EncodeScale(enc *scale.Encoder) (int, error) {
	return t.Unit.EncodeScale(enc)
}

func (t *Message) DecodeScale(dec *scale.Decoder) (int, error) {
	return t.Unit.DecodeScale(dec)
}

// encodeHeader writes the uid, revision and writer shared by all mutations.
func encodeHeader(enc *scale.Encoder, uid string, rev uint32, writer string) (total int, err error) {
	{
		n, err := scale.EncodeStringWithLimit(enc, uid, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(enc, rev)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStringWithLimit(enc, writer, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func decodeHeader(dec *scale.Decoder, uid *string, rev *uint32, writer *string) (total int, err error) {
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		*uid = field
	}
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		*rev = field
	}
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		*writer = field
	}
	return total, nil
}

func (t *PayloadUpdate) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := encodeHeader(enc, t.UID, t.Revision, t.Writer)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := encodeBool(enc, t.IsDelta)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := encodeItems(enc, t.NewItems)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := codec.EncodeStringSlice(enc, t.KeysToRemove, maxItems, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStringWithLimit(enc, t.PayloadType, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *PayloadUpdate) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := decodeHeader(dec, &t.UID, &t.Revision, &t.Writer)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := decodeBool(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.IsDelta = field
	}
	{
		field, n, err := decodeItems(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.NewItems = field
	}
	{
		field, n, err := codec.DecodeStringSlice(dec, maxItems, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		t.KeysToRemove = field
	}
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		t.PayloadType = field
	}
	return total, nil
}

func (t *LinkUpdate) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := encodeHeader(enc, t.UID, t.Revision, t.Writer)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := encodeBool(enc, t.IsDelta)
		if err != nil {
			return total, err
		}
		total += n
	}
	for _, sets := range [][]LinkSet{t.NewLinks, t.LinksToRemove} {
		n, err := encodeLinkSets(enc, sets)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *LinkUpdate) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := decodeHeader(dec, &t.UID, &t.Revision, &t.Writer)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := decodeBool(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.IsDelta = field
	}
	for _, dst := range []*[]LinkSet{&t.NewLinks, &t.LinksToRemove} {
		field, n, err := decodeLinkSets(dec)
		if err != nil {
			return total, err
		}
		total += n
		*dst = field
	}
	return total, nil
}

func (t *Commission) EncodeScale(enc *scale.Encoder) (int, error) {
	return encodeHeader(enc, t.UID, t.Revision, t.Writer)
}

func (t *Commission) DecodeScale(dec *scale.Decoder) (int, error) {
	return decodeHeader(dec, &t.UID, &t.Revision, &t.Writer)
}

func (t *Retraction) EncodeScale(enc *scale.Encoder) (int, error) {
	return encodeHeader(enc, t.UID, t.Revision, t.Writer)
}

func (t *Retraction) DecodeScale(dec *scale.Decoder) (int, error) {
	return decodeHeader(dec, &t.UID, &t.Revision, &t.Writer)
}

func (t *ResendRequest) EncodeScale(enc *scale.Encoder) (total int, err error) {
	for _, s := range []string{t.UID, t.HiddenScopeName} {
		n, err := scale.EncodeStringWithLimit(enc, s, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *ResendRequest) DecodeScale(dec *scale.Decoder) (total int, err error) {
	for _, dst := range []*string{&t.UID, &t.HiddenScopeName} {
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		*dst = field
	}
	return total, nil
}

func (t *RevisionReply) EncodeScale(enc *scale.Encoder) (int, error) {
	return scale.EncodeCompact32(enc, t.Revision)
}

func (t *RevisionReply) DecodeScale(dec *scale.Decoder) (int, error) {
	field, n, err := scale.DecodeCompact32(dec)
	if err != nil {
		return n, err
	}
	t.Revision = field
	return n, nil
}

func (t *Call) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStringWithLimit(enc, t.Method, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, t.Body, maxBodyLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *Call) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxNameLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Method = field
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, maxBodyLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Body = field
	}
	return total, nil
}
