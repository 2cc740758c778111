package buffer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-iusync/iu"
	"github.com/spacemeshos/go-iusync/log"
	"github.com/spacemeshos/go-iusync/wire"
)

// handleEvent is registered on every listener. Per message anomalies are logged and
// dropped; only failures to activate a remote server for a resend request are returned.
func (b *InputBuffer) handleEvent(ctx context.Context, data []byte) error {
	if b.closed.Load() {
		eventsDropped.WithLabelValues(dropClosed).Inc()
		return nil
	}
	ev, err := wire.Decode(data)
	if err != nil {
		eventsDropped.WithLabelValues(dropDecode).Inc()
		b.logger.Warn("failed to decode event", log.ZContext(ctx), zap.Int("size", len(data)), zap.Error(err))
		return nil
	}
	eventsReceived.WithLabelValues(ev.Kind().String()).Inc()
	switch ev := ev.(type) {
	case *wire.Message:
		b.handleMessage(ctx, ev)
	case *wire.UnitAnnouncement:
		b.handleAnnouncement(ctx, ev)
	case *wire.LinkUpdate:
		return b.handleMutation(ctx, ev.Kind(), ev.UID, ev.Writer, iu.LinksUpdated, func(u *iu.Unit) error {
			return u.ApplyLinkUpdate(ev.Update())
		})
	case *wire.PayloadUpdate:
		return b.handleMutation(ctx, ev.Kind(), ev.UID, ev.Writer, iu.Updated, func(u *iu.Unit) error {
			return u.ApplyPayloadUpdate(ev.Update())
		})
	case *wire.Commission:
		return b.handleMutation(ctx, ev.Kind(), ev.UID, ev.Writer, iu.Committed, func(u *iu.Unit) error {
			u.ApplyCommission(ev.Revision)
			return nil
		})
	case *wire.Retraction:
		b.handleRetraction(ctx, ev)
	default:
		b.logger.Error("unhandled event kind", log.ZContext(ctx), zap.Stringer("kind", ev.Kind()))
	}
	return nil
}

// handleMessage delivers a transient unit. The unit is stored for the duration of its
// handlers, a second delivery of the same id in that window is dropped.
func (b *InputBuffer) handleMessage(ctx context.Context, ev *wire.Message) {
	u := iu.New(ev.Unit.Snapshot())
	if !b.messages.putIfAbsent(u) {
		eventsDropped.WithLabelValues(dropDuplicateMessage).Inc()
		b.logger.Warn("duplicate transient delivery", log.ZContext(ctx), zap.String("uid", u.UID()))
		return
	}
	defer b.messages.remove(u.UID())
	unlock := b.locks.lock(u.UID())
	defer unlock()
	b.callHandlers(ctx, u, iu.Message)
}

func (b *InputBuffer) handleAnnouncement(ctx context.Context, ev *wire.UnitAnnouncement) {
	unlock := b.locks.lock(ev.Unit.UID)
	defer unlock()
	u := iu.New(ev.Unit.Snapshot())
	if !b.units.putIfAbsent(u) {
		eventsDropped.WithLabelValues(dropDuplicateAnnouncement).Inc()
		b.logger.Debug("unit already known", log.ZContext(ctx), zap.String("uid", u.UID()))
		return
	}
	b.mirrored.Inc()
	b.logger.Debug("unit added", log.ZContext(ctx), zap.Object("unit", u))
	b.callHandlers(ctx, u, iu.Added)
}

// handleMutation applies a payload, link or commit event to a known unit. Unknown units
// trigger a resend request if enabled, outside of the unit lock.
func (b *InputBuffer) handleMutation(
	ctx context.Context,
	kind wire.Kind,
	uid, writer string,
	typ iu.EventType,
	apply func(*iu.Unit) error,
) error {
	if writer == b.uniqueName {
		eventsDropped.WithLabelValues(dropSelfEcho).Inc()
		return nil
	}
	found, err := b.applyLocked(ctx, uid, typ, apply)
	switch {
	case err != nil:
		eventsDropped.WithLabelValues(dropLatched).Inc()
		b.logger.Warn("update rejected",
			log.ZContext(ctx),
			zap.String("uid", uid),
			zap.Stringer("kind", kind),
			zap.String("writer", writer),
			zap.Error(err),
		)
		return nil
	case found:
		return nil
	}
	if !b.ResendActive() {
		eventsDropped.WithLabelValues(dropUnknownUnit).Inc()
		b.logger.Warn("update for unknown unit",
			log.ZContext(ctx),
			zap.String("uid", uid),
			zap.Stringer("kind", kind),
			zap.String("writer", writer),
		)
		return nil
	}
	err = b.resend(ctx, uid, writer)
	switch {
	case err == nil:
	case errors.Is(err, ErrActivation):
		return err
	default:
		b.logger.Warn("resend request failed",
			log.ZContext(ctx),
			zap.String("uid", uid),
			zap.String("writer", writer),
			zap.Error(err),
		)
	}
	return nil
}

func (b *InputBuffer) applyLocked(
	ctx context.Context,
	uid string,
	typ iu.EventType,
	apply func(*iu.Unit) error,
) (bool, error) {
	unlock := b.locks.lock(uid)
	defer unlock()
	u, ok := b.units.get(uid)
	if !ok {
		return false, nil
	}
	if err := apply(u); err != nil {
		return true, err
	}
	b.callHandlers(ctx, u, typ)
	return true, nil
}

// handleRetraction applies retractions regardless of the writer.
func (b *InputBuffer) handleRetraction(ctx context.Context, ev *wire.Retraction) {
	unlock := b.locks.lock(ev.UID)
	defer unlock()
	u, ok := b.units.get(ev.UID)
	if !ok {
		eventsDropped.WithLabelValues(dropUnknownUnit).Inc()
		b.logger.Warn("retraction for unknown unit",
			log.ZContext(ctx),
			zap.String("uid", ev.UID),
			zap.String("writer", ev.Writer),
		)
		return
	}
	u.ApplyRetraction()
	b.callHandlers(ctx, u, iu.Retracted)
}
