package iu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newUnit() *Unit {
	return New(Snapshot{
		UID:         "u1",
		OwnerName:   "owner",
		Category:    "nlu",
		PayloadType: PayloadStr,
		Revision:    1,
		Payload:     Payload{"a": "1", "b": "2"},
		Links:       Links{"grin": {"z", "x", "x"}},
	})
}

func TestNewCopiesInput(t *testing.T) {
	payload := Payload{"text": "hi"}
	u := New(Snapshot{UID: "u1", Payload: payload})
	payload["text"] = "changed"
	require.Equal(t, Payload{"text": "hi"}, u.Payload())

	got := u.Payload()
	got["text"] = "mutated"
	v, ok := u.Get("text")
	require.True(t, ok)
	require.Equal(t, "hi", v)

	require.Equal(t, Payload{}, New(Snapshot{UID: "empty"}).Payload())
	require.Equal(t, Links{"grin": {"x", "z"}}, newUnit().Links())
}

func TestApplyPayloadUpdate(t *testing.T) {
	t.Run("delta", func(t *testing.T) {
		u := newUnit()
		require.NoError(t, u.ApplyPayloadUpdate(PayloadUpdate{
			Revision:     2,
			IsDelta:      true,
			NewItems:     map[string]string{"c": "3", "a": "10"},
			KeysToRemove: []string{"b", "missing"},
		}))
		if diff := cmp.Diff(Payload{"a": "10", "c": "3"}, u.Payload()); diff != "" {
			t.Errorf("payload mismatch (-want +got):\n%s", diff)
		}
		require.EqualValues(t, 2, u.Revision())
	})
	t.Run("full", func(t *testing.T) {
		u := newUnit()
		require.NoError(t, u.ApplyPayloadUpdate(PayloadUpdate{
			Revision: 5,
			NewItems: map[string]string{"c": "3"},
		}))
		require.Equal(t, Payload{"c": "3"}, u.Payload())
		require.EqualValues(t, 5, u.Revision())
	})
	t.Run("stale revision kept", func(t *testing.T) {
		u := newUnit()
		require.NoError(t, u.ApplyPayloadUpdate(PayloadUpdate{Revision: 4, IsDelta: true}))
		require.NoError(t, u.ApplyPayloadUpdate(PayloadUpdate{Revision: 3, IsDelta: true}))
		require.EqualValues(t, 4, u.Revision())
	})
}

func TestApplyLinkUpdate(t *testing.T) {
	t.Run("delta", func(t *testing.T) {
		u := newUnit()
		require.NoError(t, u.ApplyLinkUpdate(LinkUpdate{
			Revision:      2,
			IsDelta:       true,
			NewLinks:      Links{"grin": {"a"}, "sll": {"q"}},
			LinksToRemove: Links{"grin": {"z"}, "none": {"x"}},
		}))
		if diff := cmp.Diff(Links{"grin": {"a", "x"}, "sll": {"q"}}, u.Links()); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("remove last target drops type", func(t *testing.T) {
		u := newUnit()
		require.NoError(t, u.ApplyLinkUpdate(LinkUpdate{
			IsDelta:       true,
			LinksToRemove: Links{"grin": {"x", "z"}},
		}))
		require.Empty(t, u.Links())
	})
	t.Run("full", func(t *testing.T) {
		u := newUnit()
		require.NoError(t, u.ApplyLinkUpdate(LinkUpdate{
			Revision: 3,
			NewLinks: Links{"sll": {"b", "a"}},
		}))
		require.Equal(t, Links{"sll": {"a", "b"}}, u.Links())
		require.EqualValues(t, 3, u.Revision())
	})
}

func TestLatches(t *testing.T) {
	t.Run("committed", func(t *testing.T) {
		u := newUnit()
		u.ApplyCommission(3)
		require.True(t, u.Committed())
		require.EqualValues(t, 3, u.Revision())

		err := u.ApplyPayloadUpdate(PayloadUpdate{Revision: 4, NewItems: map[string]string{"x": "y"}})
		require.ErrorIs(t, err, ErrCommitted)
		require.ErrorIs(t, u.ApplyLinkUpdate(LinkUpdate{Revision: 4}), ErrCommitted)
		require.Equal(t, Payload{"a": "1", "b": "2"}, u.Payload())
		require.EqualValues(t, 3, u.Revision())

		// late commits are still applied
		u.ApplyCommission(2)
		require.EqualValues(t, 2, u.Revision())
	})
	t.Run("retracted", func(t *testing.T) {
		u := newUnit()
		u.ApplyRetraction()
		require.True(t, u.Retracted())
		require.ErrorIs(t, u.ApplyPayloadUpdate(PayloadUpdate{}), ErrRetracted)
		require.ErrorIs(t, u.ApplyLinkUpdate(LinkUpdate{}), ErrRetracted)
		u.ApplyCommission(7)
		require.True(t, u.Committed())
	})
}

func TestEventTypeString(t *testing.T) {
	require.Equal(t, "ADDED", Added.String())
	require.Equal(t, "LINKSUPDATED", LinksUpdated.String())
	require.Equal(t, "MESSAGE", Message.String())
	require.Equal(t, "ADDED|COMMITTED", (Added | Committed).String())
	require.Equal(t, "NONE", EventType(0).String())
	require.EqualValues(t, 127, AllEvents)
	require.True(t, AllEvents.Has(Retracted))
	require.False(t, Added.Has(Updated))
	require.False(t, AllEvents.Has(0))
}
