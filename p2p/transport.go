package p2p

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-iusync/codec"
	"github.com/spacemeshos/go-iusync/log"
	"github.com/spacemeshos/go-iusync/p2p/pubsub"
	"github.com/spacemeshos/go-iusync/p2p/server"
	"github.com/spacemeshos/go-iusync/transport"
	"github.com/spacemeshos/go-iusync/wire"
)

// RPCProtocol prefixes the stream protocol of every local server scope.
const RPCProtocol = "/iusync/rpc/1.0.0"

var (
	// ErrNoProvider is returned when no connected peer serves a scope.
	ErrNoProvider = errors.New("no peer serves scope")
	// ErrInactive is returned by calls on an endpoint that is not active.
	ErrInactive = errors.New("endpoint is not active")
	// ErrUnknownMethod is returned to the caller of a method that is not registered.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrTransportClosed is returned when endpoints are created after Close.
	ErrTransportClosed = errors.New("transport closed")
)

func protocolFor(scope string) string {
	return RPCProtocol + scope
}

// TransportConfig tunes the request/response part of the transport.
type TransportConfig struct {
	RequestTimeout   time.Duration
	ResolveTimeout   time.Duration
	ResolveCacheSize int
	QueueSize        int
	RequestsPerSec   int
	Metrics          bool
}

// DefaultTransportConfig returns the values used for unset fields of a TransportConfig.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		RequestTimeout:   10 * time.Second,
		ResolveTimeout:   5 * time.Second,
		ResolveCacheSize: 1024,
		QueueSize:        100,
		RequestsPerSec:   100,
	}
}

type endpoint interface {
	Scope() string
	Deactivate() error
}

var (
	_ transport.Factory   = (*Transport)(nil)
	_ transport.Publisher = (*Transport)(nil)
)

// Transport maps listener scopes to gossipsub topics and server scopes to stream protocols.
type Transport struct {
	logger *zap.Logger
	host   host.Host
	pubsub *pubsub.GossipPubSub
	cfg    TransportConfig

	resolved *lru.Cache[string, peer.ID]

	mu     sync.Mutex
	closed bool
	active map[endpoint]struct{}
}

// NewTransport creates a transport over a host and its gossipsub instance.
// Zero values in cfg are replaced by the defaults.
func NewTransport(logger *zap.Logger, h host.Host, ps *pubsub.GossipPubSub, cfg TransportConfig) (*Transport, error) {
	defaults := DefaultTransportConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = defaults.ResolveTimeout
	}
	if cfg.ResolveCacheSize <= 0 {
		cfg.ResolveCacheSize = defaults.ResolveCacheSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = defaults.RequestsPerSec
	}
	cache, err := lru.New[string, peer.ID](cfg.ResolveCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create resolve cache: %w", err)
	}
	return &Transport{
		logger:   logger,
		host:     h,
		pubsub:   ps,
		cfg:      cfg,
		resolved: cache,
		active:   make(map[endpoint]struct{}),
	}, nil
}

func (t *Transport) track(e endpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	t.active[e] = struct{}{}
	return nil
}

func (t *Transport) untrack(e endpoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, e)
}

// Publish sends data to every listener of scope.
func (t *Transport) Publish(ctx context.Context, scope string, data []byte) error {
	return t.pubsub.Publish(ctx, scope, data)
}

// CreateListener returns an inactive listener for scope.
func (t *Transport) CreateListener(scope string) (transport.Listener, error) {
	if t.isClosed() {
		return nil, ErrTransportClosed
	}
	return &listener{t: t, scope: scope}, nil
}

// CreateRemoteServer returns an inactive connection to the methods served under scope.
func (t *Transport) CreateRemoteServer(scope string) (transport.RemoteServer, error) {
	if t.isClosed() {
		return nil, ErrTransportClosed
	}
	opts := []server.Opt{
		server.WithLog(t.logger),
		server.WithTimeout(t.cfg.RequestTimeout),
	}
	if t.cfg.Metrics {
		opts = append(opts, server.WithMetrics())
	}
	return &remoteServer{
		t:     t,
		scope: scope,
		// the client is never run, it is only used for requests
		client: server.New(t.host, protocolFor(scope), nil, opts...),
	}, nil
}

// CreateLocalServer returns an inactive server for methods under scope.
func (t *Transport) CreateLocalServer(scope string) (transport.LocalServer, error) {
	if t.isClosed() {
		return nil, ErrTransportClosed
	}
	return &localServer{t: t, scope: scope, methods: make(map[string]transport.Method)}, nil
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// resolve finds a connected peer that serves scope.
func (t *Transport) resolve(ctx context.Context, scope string) (peer.ID, error) {
	if pid, ok := t.resolved.Get(scope); ok {
		return pid, nil
	}
	proto := protocol.ID(protocolFor(scope))
	peers := t.host.Network().Peers()
	// peers advertising the protocol through identify are probed first
	slices.SortStableFunc(peers, func(a, b peer.ID) int {
		return t.supportRank(a, proto) - t.supportRank(b, proto)
	})
	for _, pid := range peers {
		if err := t.probe(ctx, pid, proto); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		t.resolved.Add(scope, pid)
		return pid, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoProvider, scope)
}

func (t *Transport) supportRank(pid peer.ID, proto protocol.ID) int {
	supported, err := t.host.Peerstore().SupportsProtocols(pid, proto)
	if err != nil || len(supported) == 0 {
		return 1
	}
	return 0
}

func (t *Transport) probe(ctx context.Context, pid peer.ID, proto protocol.ID) error {
	ctx, cancel := context.WithTimeout(network.WithNoDial(ctx, "probe"), t.cfg.ResolveTimeout)
	defer cancel()
	stream, err := t.host.NewStream(ctx, pid, proto)
	if err != nil {
		return err
	}
	return stream.Reset()
}

// Close deactivates every endpoint that is still active.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	endpoints := make([]endpoint, 0, len(t.active))
	for e := range t.active {
		endpoints = append(endpoints, e)
	}
	t.mu.Unlock()
	slices.SortFunc(endpoints, func(a, b endpoint) int {
		switch {
		case a.Scope() < b.Scope():
			return -1
		case a.Scope() > b.Scope():
			return 1
		}
		return 0
	})
	var errs error
	for _, e := range endpoints {
		if err := e.Deactivate(); err != nil {
			t.logger.Warn("failed to deactivate endpoint", zap.String("scope", e.Scope()), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("deactivate %s: %w", e.Scope(), err))
		}
	}
	return errs
}

type listener struct {
	t     *Transport
	scope string

	mu       sync.Mutex
	handlers []transport.Handler
	sub      *pubsub.Subscription
}

func (l *listener) Scope() string {
	return l.scope
}

func (l *listener) AddHandler(h transport.Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

func (l *listener) Activate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sub != nil {
		return nil
	}
	if err := l.t.track(l); err != nil {
		return err
	}
	sub, err := l.t.pubsub.Subscribe(l.scope, l.deliver)
	if err != nil {
		l.t.untrack(l)
		return err
	}
	l.sub = sub
	return nil
}

func (l *listener) deliver(ctx context.Context, _ peer.ID, msg []byte) error {
	l.mu.Lock()
	handlers := slices.Clone(l.handlers)
	l.mu.Unlock()
	var errs error
	for _, h := range handlers {
		errs = multierr.Append(errs, h(ctx, msg))
	}
	return errs
}

func (l *listener) Deactivate() error {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()
	if sub == nil {
		return nil
	}
	sub.Cancel()
	l.t.untrack(l)
	return nil
}

type remoteServer struct {
	t      *Transport
	scope  string
	client *server.Server

	mu     sync.Mutex
	active bool
}

func (r *remoteServer) Scope() string {
	return r.scope
}

func (r *remoteServer) Activate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.t.cfg.ResolveTimeout)
	defer cancel()
	if _, err := r.t.resolve(ctx, r.scope); err != nil {
		return err
	}
	if err := r.t.track(r); err != nil {
		return err
	}
	r.active = true
	return nil
}

func (r *remoteServer) isActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *remoteServer) Call(ctx context.Context, method string, req []byte) ([]byte, error) {
	if !r.isActive() {
		return nil, fmt.Errorf("%w: %s", ErrInactive, r.scope)
	}
	pid, err := r.t.resolve(ctx, r.scope)
	if err != nil {
		return nil, err
	}
	body, err := codec.Encode(&wire.Call{Method: method, Body: req})
	if err != nil {
		return nil, fmt.Errorf("encode call %s: %w", method, err)
	}
	resp, err := r.client.Request(ctx, pid, body)
	if err != nil && !errors.Is(err, &server.ServerError{}) {
		r.t.resolved.Remove(r.scope)
	}
	return resp, err
}

func (r *remoteServer) Deactivate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil
	}
	r.active = false
	r.t.untrack(r)
	return nil
}

type localServer struct {
	t     *Transport
	scope string

	mu      sync.Mutex
	methods map[string]transport.Method
	cancel  context.CancelFunc
	eg      *errgroup.Group
}

func (s *localServer) Scope() string {
	return s.scope
}

func (s *localServer) RegisterMethod(name string, method transport.Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = method
}

func (s *localServer) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	if err := s.t.track(s); err != nil {
		return err
	}
	opts := []server.Opt{
		server.WithLog(s.t.logger),
		server.WithTimeout(s.t.cfg.RequestTimeout),
		server.WithQueueSize(s.t.cfg.QueueSize),
		server.WithRequestsPerInterval(s.t.cfg.RequestsPerSec, time.Second),
	}
	if s.t.cfg.Metrics {
		opts = append(opts, server.WithMetrics())
	}
	srv := server.New(s.t.host, protocolFor(s.scope), s.handle, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.eg = &errgroup.Group{}
	s.eg.Go(func() error {
		return srv.Run(ctx)
	})
	<-srv.Ready()
	return nil
}

func (s *localServer) handle(ctx context.Context, req []byte) ([]byte, error) {
	var call wire.Call
	if err := codec.Decode(req, &call); err != nil {
		return nil, fmt.Errorf("decode call: %w", err)
	}
	s.mu.Lock()
	m, ok := s.methods[call.Method]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, call.Method)
	}
	pid, _ := server.ContextPeerID(ctx)
	s.t.logger.Debug("serving call",
		log.ZContext(ctx),
		zap.String("scope", s.scope),
		zap.String("method", call.Method),
		zap.Stringer("peer", pid),
	)
	return m(ctx, call.Body)
}

func (s *localServer) Deactivate() error {
	s.mu.Lock()
	cancel, eg := s.cancel, s.eg
	s.cancel, s.eg = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	err := eg.Wait()
	s.t.untrack(s)
	return err
}
