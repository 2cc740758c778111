// Package buffer mirrors remote units published on category topics.
//
// An InputBuffer subscribes to categories, applies announcements, updates, commits and
// retractions to its local mirror and notifies registered handlers. Mutations of units it
// has never seen can be repaired by asking the owner to re-publish the unit on a hidden
// category private to the buffer.
//
// Dispatch may run concurrently. Work on a single unit id is serialized, and a resend
// request blocks the dispatching goroutine for at most RemoteCallTimeout.
package buffer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-iusync/iu"
	"github.com/spacemeshos/go-iusync/transport"
)

var (
	// ErrActivation is returned when a listener or remote server cannot be created or activated.
	ErrActivation = errors.New("endpoint activation failed")
	// ErrResendFailed is reported when the owner answers a resend request with revision 0.
	ErrResendFailed = errors.New("resend request failed")
	// ErrClosed is returned by operations on a closed buffer.
	ErrClosed = errors.New("input buffer is closed")
	// ErrInvalidConfig is returned by New for an unusable configuration.
	ErrInvalidConfig = errors.New("invalid input buffer config")
)

type Opt func(*InputBuffer)

func WithLogger(logger *zap.Logger) Opt {
	return func(b *InputBuffer) {
		b.logger = logger
	}
}

// WithUniqueShortName overrides the generated short name, which is also the hidden category.
func WithUniqueShortName(name string) Opt {
	return func(b *InputBuffer) {
		b.uniqueShortName = name
	}
}

// InputBuffer is the receiving side of the unit synchronization protocol.
type InputBuffer struct {
	logger  *zap.Logger
	cfg     Config
	factory transport.Factory

	uniqueShortName string
	uniqueName      string
	resendActive    atomic.Bool
	closed          atomic.Bool

	listenersMu sync.Mutex
	listeners   map[string]transport.Listener

	remotesMu sync.Mutex
	remotes   map[string]transport.RemoteServer

	units    *unitStore
	messages *unitStore
	locks    stripedLocks
	handlers handlerRegistry

	mirrored prometheus.Gauge
}

// New creates a buffer and subscribes every configured category and the hidden category.
// If any subscription fails, subscriptions made so far are deactivated.
func New(factory transport.Factory, cfg Config, opts ...Opt) (*InputBuffer, error) {
	if cfg.OwningComponentName == "" {
		return nil, fmt.Errorf("%w: owning component name is empty", ErrInvalidConfig)
	}
	if cfg.Channel == "" {
		cfg.Channel = transport.DefaultChannel
	}
	if cfg.RemoteCallTimeout <= 0 {
		cfg.RemoteCallTimeout = DefaultConfig().RemoteCallTimeout
	}
	b := &InputBuffer{
		logger:    zap.NewNop(),
		cfg:       cfg,
		factory:   factory,
		listeners: map[string]transport.Listener{},
		remotes:   map[string]transport.RemoteServer{},
		units:     newUnitStore(),
		messages:  newUnitStore(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.uniqueShortName == "" {
		b.uniqueShortName = cfg.OwningComponentName + "ID" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	b.uniqueName = "/ipaaca/component/" + b.uniqueShortName + "/IB"
	b.logger = b.logger.With(zap.String("buffer", b.uniqueShortName))
	b.mirrored = mirroredUnits.WithLabelValues(b.uniqueShortName)
	b.resendActive.Store(cfg.ResendActive)

	for _, category := range append(slices.Clone(cfg.CategoryInterests), b.uniqueShortName) {
		if _, err := b.ensureSubscribed(category); err != nil {
			return nil, multierr.Append(err, b.Close())
		}
	}
	b.logger.Info("input buffer created",
		zap.String("unique_name", b.uniqueName),
		zap.String("channel", cfg.Channel),
		zap.Strings("categories", b.CategoryInterests()),
		zap.Bool("resend_active", cfg.ResendActive),
	)
	return b, nil
}

// UniqueShortName is the generated short name of the buffer, also its hidden category.
func (b *InputBuffer) UniqueShortName() string { return b.uniqueShortName }

// UniqueName is the writer identity of the component owning this buffer.
func (b *InputBuffer) UniqueName() string { return b.uniqueName }

func (b *InputBuffer) OwningComponentName() string { return b.cfg.OwningComponentName }

func (b *InputBuffer) ResendActive() bool { return b.resendActive.Load() }

func (b *InputBuffer) SetResendActive(active bool) { b.resendActive.Store(active) }

// AddCategoryInterest subscribes categories that are not subscribed yet.
func (b *InputBuffer) AddCategoryInterest(categories ...string) error {
	for _, category := range categories {
		if _, err := b.ensureSubscribed(category); err != nil {
			return err
		}
	}
	return nil
}

// CategoryInterests returns the subscribed categories, including the hidden one, sorted.
func (b *InputBuffer) CategoryInterests() []string {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	return slices.Sorted(maps.Keys(b.listeners))
}

func (b *InputBuffer) ensureSubscribed(category string) (transport.Listener, error) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if l, ok := b.listeners[category]; ok {
		return l, nil
	}
	scope := transport.ListenerScope(b.cfg.Channel, category)
	l, err := b.factory.CreateListener(scope)
	if err != nil {
		return nil, fmt.Errorf("%w: create listener %s: %w", ErrActivation, scope, err)
	}
	l.AddHandler(b.handleEvent)
	if err := l.Activate(); err != nil {
		return nil, fmt.Errorf("%w: activate listener %s: %w", ErrActivation, scope, err)
	}
	b.listeners[category] = l
	b.logger.Debug("subscribed category", zap.String("category", category), zap.String("scope", scope))
	return l, nil
}

// endpointFor returns the activated remote server of an owner, creating it on first use.
func (b *InputBuffer) endpointFor(owner string) (transport.RemoteServer, error) {
	b.remotesMu.Lock()
	defer b.remotesMu.Unlock()
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if r, ok := b.remotes[owner]; ok {
		return r, nil
	}
	r, err := b.factory.CreateRemoteServer(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: create remote server %s: %w", ErrActivation, owner, err)
	}
	if err := r.Activate(); err != nil {
		return nil, fmt.Errorf("%w: activate remote server %s: %w", ErrActivation, owner, err)
	}
	b.remotes[owner] = r
	return r, nil
}

// Unit returns a durable unit, or a transient one while its handlers run.
func (b *InputBuffer) Unit(uid string) (*iu.Unit, bool) {
	if u, ok := b.units.get(uid); ok {
		return u, true
	}
	return b.messages.get(uid)
}

// Units returns the durable units ordered by id.
func (b *InputBuffer) Units() []*iu.Unit {
	return b.units.values()
}

// Close deactivates every listener and then every remote server. All of them are
// attempted, failures are logged and returned together. Subsequent calls return nil.
func (b *InputBuffer) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs error

	b.listenersMu.Lock()
	listeners := b.listeners
	b.listeners = map[string]transport.Listener{}
	b.listenersMu.Unlock()
	for _, category := range slices.Sorted(maps.Keys(listeners)) {
		if err := listeners[category].Deactivate(); err != nil {
			b.logger.Warn("failed to deactivate listener", zap.String("category", category), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("deactivate listener %s: %w", category, err))
		}
	}

	b.remotesMu.Lock()
	remotes := b.remotes
	b.remotes = map[string]transport.RemoteServer{}
	b.remotesMu.Unlock()
	for _, owner := range slices.Sorted(maps.Keys(remotes)) {
		if err := remotes[owner].Deactivate(); err != nil {
			b.logger.Warn("failed to deactivate remote server", zap.String("owner", owner), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("deactivate remote server %s: %w", owner, err))
		}
	}
	mirroredUnits.DeleteLabelValues(b.uniqueShortName)
	return errs
}
