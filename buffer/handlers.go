package buffer

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-iusync/iu"
	"github.com/spacemeshos/go-iusync/log"
)

// Event is passed to handlers after the store has been updated.
type Event struct {
	UID      string
	Category string
	Type     iu.EventType
	// Remote is true for every event applied from the bus.
	Remote bool
	// Unit is the stored unit. For transient messages it is only valid during the call.
	Unit *iu.Unit
}

// EventHandler is invoked synchronously on the dispatching goroutine while the unit's
// lock is held. Ids share a fixed set of locks, so a handler must not block on the
// dispatch of another event: it may be waiting for the lock it holds.
type EventHandler func(ctx context.Context, ev Event)

// HandlerID identifies a registration.
type HandlerID uint64

type registration struct {
	id         HandlerID
	mask       iu.EventType
	categories []string
	uid        string
	fn         EventHandler
}

func (r *registration) matches(ev *Event) bool {
	if !r.mask.Has(ev.Type) {
		return false
	}
	if r.uid != "" {
		return r.uid == ev.UID
	}
	return len(r.categories) == 0 || slices.Contains(r.categories, ev.Category)
}

type handlerRegistry struct {
	mu     sync.RWMutex
	lastID HandlerID
	regs   []*registration
}

func (r *handlerRegistry) add(reg *registration) HandlerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	reg.id = r.lastID
	r.regs = append(r.regs, reg)
	return reg.id
}

func (r *handlerRegistry) remove(id HandlerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.regs)
	r.regs = slices.DeleteFunc(r.regs, func(reg *registration) bool { return reg.id == id })
	return len(r.regs) != n
}

// matching returns handlers for the event in registration order.
func (r *handlerRegistry) matching(ev *Event) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []EventHandler
	for _, reg := range r.regs {
		if reg.matches(ev) {
			out = append(out, reg.fn)
		}
	}
	return out
}

// RegisterHandler registers h for events in mask on units of the given categories,
// or of all categories if none are given. See EventHandler for the locking constraint.
func (b *InputBuffer) RegisterHandler(h EventHandler, mask iu.EventType, categories ...string) HandlerID {
	return b.handlers.add(&registration{
		mask:       mask,
		categories: slices.Clone(categories),
		fn:         h,
	})
}

// RegisterUnitHandler registers h for events in mask on a single unit.
func (b *InputBuffer) RegisterUnitHandler(uid string, h EventHandler, mask iu.EventType) HandlerID {
	return b.handlers.add(&registration{
		mask: mask,
		uid:  uid,
		fn:   h,
	})
}

// UnregisterHandler returns false if id is not registered.
func (b *InputBuffer) UnregisterHandler(id HandlerID) bool {
	return b.handlers.remove(id)
}

func (b *InputBuffer) callHandlers(ctx context.Context, u *iu.Unit, typ iu.EventType) {
	ev := Event{
		UID:      u.UID(),
		Category: u.Category(),
		Type:     typ,
		Remote:   true,
		Unit:     u,
	}
	for _, h := range b.handlers.matching(&ev) {
		b.safeCall(ctx, h, ev)
	}
}

func (b *InputBuffer) safeCall(ctx context.Context, h EventHandler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.Inc()
			b.logger.Error("event handler panicked",
				log.ZContext(ctx),
				zap.String("uid", ev.UID),
				zap.Stringer("event", ev.Type),
				zap.Any("panic", r),
				zap.StackSkip("stack", 2),
			)
		}
	}()
	h(ctx, ev)
}
