// Package p2p runs the libp2p host that carries unit events. Listener scopes are gossipsub
// topics and server scopes are stream protocols.
package p2p

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	lp2plog "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-libp2p/core/transport"
	"github.com/libp2p/go-libp2p/p2p/host/peerstore/pstoremem"
	"github.com/libp2p/go-libp2p/p2p/muxer/yamux"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	tptu "github.com/libp2p/go-libp2p/p2p/net/upgrader"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-iusync/p2p/pubsub"
)

const lockFilename = "p2p.lock"

// ErrDataDirLocked is returned when another host uses the same data dir.
var ErrDataDirLocked = errors.New("p2p data dir is locked by another process")

// DefaultConfig config.
func DefaultConfig() Config {
	return Config{
		LogLevel:           "error",
		GracePeersShutdown: 30 * time.Second,
		Listen:             []string{"/ip4/0.0.0.0/tcp/7513"},
		LowPeers:           40,
		HighPeers:          100,
		Flood:              true,
		MaxMessageSize:     2 << 20,
		QueueSize:          1024,
		RequestTimeout:     10 * time.Second,
		ResolveTimeout:     5 * time.Second,
		ResolveCacheSize:   1024,
		ServerQueueSize:    100,
		ServerRps:          100,
	}
}

// Config for all things related to p2p layer.
type Config struct {
	// DataDir keeps the identity. An empty DataDir runs with an ephemeral identity.
	DataDir            string        `mapstructure:"data-dir"`
	LogLevel           string        `mapstructure:"log-level"`
	GracePeersShutdown time.Duration `mapstructure:"grace-peers-shutdown"`
	// NetworkCookie is mixed into the noise handshake. Hosts with different cookies
	// can't connect to each other.
	NetworkCookie string `mapstructure:"network-cookie"`

	// see https://lwn.net/Articles/542629/ for reuseport explanation
	DisableReusePort bool     `mapstructure:"disable-reuseport"`
	Listen           []string `mapstructure:"listen"`
	Bootnodes        []string `mapstructure:"bootnodes"`
	LowPeers         int      `mapstructure:"low-peers"`
	HighPeers        int      `mapstructure:"high-peers"`

	Flood          bool `mapstructure:"flood"`
	MaxMessageSize int  `mapstructure:"max-message-size"`
	QueueSize      int  `mapstructure:"queue-size"`

	RequestTimeout   time.Duration `mapstructure:"request-timeout"`
	ResolveTimeout   time.Duration `mapstructure:"resolve-timeout"`
	ResolveCacheSize int           `mapstructure:"resolve-cache-size"`
	ServerQueueSize  int           `mapstructure:"server-queue-size"`
	ServerRps        int           `mapstructure:"server-rps"`

	Metrics bool `mapstructure:"p2p-metrics"`
}

func (cfg *Config) pubsubConfig() pubsub.Config {
	return pubsub.Config{
		Flood:          cfg.Flood,
		MaxMessageSize: cfg.MaxMessageSize,
		QueueSize:      cfg.QueueSize,
	}
}

func (cfg *Config) transportConfig() TransportConfig {
	return TransportConfig{
		RequestTimeout:   cfg.RequestTimeout,
		ResolveTimeout:   cfg.ResolveTimeout,
		ResolveCacheSize: cfg.ResolveCacheSize,
		QueueSize:        cfg.ServerQueueSize,
		RequestsPerSec:   cfg.ServerRps,
		Metrics:          cfg.Metrics,
	}
}

// Opt is for configuring Host.
type Opt func(fh *Host)

// WithLog configures logger for Host.
func WithLog(logger *zap.Logger) Opt {
	return func(fh *Host) {
		fh.logger = logger
	}
}

// WithConfig sets Config for Host.
func WithConfig(cfg Config) Opt {
	return func(fh *Host) {
		fh.cfg = cfg
	}
}

func withLock(lock *flock.Flock) Opt {
	return func(fh *Host) {
		fh.lock = lock
	}
}

// Host is a libp2p host together with gossipsub and the unit transport on top of it.
type Host struct {
	host.Host

	cfg    Config
	logger *zap.Logger
	lock   *flock.Flock

	pubsub    *pubsub.GossipPubSub
	transport *Transport
}

// New initializes a libp2p host and upgrades it.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*Host, error) {
	logger.Info("starting libp2p host", zap.Any("config", &cfg))
	key, lock, err := identity(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	h, err := newHost(logger, cfg, key)
	if err != nil {
		return nil, multierr.Append(err, unlock(lock))
	}
	logger.Info("local node identity", zap.Stringer("identity", h.ID()))
	fh, err := Upgrade(ctx, h, WithConfig(cfg), WithLog(logger), withLock(lock))
	if err != nil {
		return nil, multierr.Combine(err, h.Close(), unlock(lock))
	}
	if err := fh.connectBootnodes(ctx); err != nil {
		return nil, multierr.Append(err, fh.Stop())
	}
	return fh, nil
}

func identity(dir string) (crypto.PrivKey, *flock.Flock, error) {
	if dir == "" {
		key, _, err := crypto.GenerateEd25519Key(rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("generate ephemeral identity: %w", err)
		}
		return key, nil, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	lock := flock.New(filepath.Join(dir, lockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("lock data dir %s: %w", dir, err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("%w: %s", ErrDataDirLocked, dir)
	}
	key, err := EnsureIdentity(dir)
	if err != nil {
		return nil, nil, multierr.Append(err, lock.Unlock())
	}
	return key, lock, nil
}

func unlock(lock *flock.Flock) error {
	if lock == nil {
		return nil
	}
	return lock.Unlock()
}

func newHost(logger *zap.Logger, cfg Config, key crypto.PrivKey) (host.Host, error) {
	level, err := lp2plog.LevelFromString(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse libp2p log level %q: %w", cfg.LogLevel, err)
	}
	lp2plog.SetPrimaryCore(logger.Core())
	lp2plog.SetAllLoggers(level)

	listen := make([]multiaddr.Multiaddr, 0, len(cfg.Listen))
	for _, addr := range cfg.Listen {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("parse listen address %s: %w", addr, err)
		}
		listen = append(listen, ma)
	}
	cm, err := connmgr.NewConnManager(cfg.LowPeers, cfg.HighPeers, connmgr.WithGracePeriod(cfg.GracePeersShutdown))
	if err != nil {
		return nil, fmt.Errorf("p2p create conn mgr: %w", err)
	}
	ps, err := pstoremem.NewPeerstore()
	if err != nil {
		return nil, fmt.Errorf("can't create peer store: %w", err)
	}
	bootnodes, err := parseBootnodes(cfg.Bootnodes)
	if err != nil {
		return nil, err
	}
	g := &gater{max: cfg.HighPeers, bootnodes: make(map[peer.ID]struct{}, len(bootnodes))}
	for _, info := range bootnodes {
		g.bootnodes[info.ID] = struct{}{}
	}
	streamer := *yamux.DefaultTransport
	prologue := []byte(cfg.NetworkCookie)
	h, err := libp2p.New(
		libp2p.Identity(key),
		libp2p.ListenAddrs(listen...),
		libp2p.UserAgent("go-iusync"),
		libp2p.Transport(func(upgrader transport.Upgrader, rcmgr network.ResourceManager) (transport.Transport, error) {
			opts := []tcp.Option{}
			if cfg.DisableReusePort {
				opts = append(opts, tcp.DisableReuseport())
			}
			if cfg.Metrics {
				opts = append(opts, tcp.WithMetrics())
			}
			return tcp.NewTCPTransport(upgrader, rcmgr, opts...)
		}),
		libp2p.Security(noise.ID, func(id protocol.ID, privkey crypto.PrivKey, muxers []tptu.StreamMuxer) (*noise.SessionTransport, error) {
			tp, err := noise.New(id, privkey, muxers)
			if err != nil {
				return nil, err
			}
			return tp.WithSessionOptions(noise.Prologue(prologue))
		}),
		libp2p.Muxer("/yamux/1.0.0", &streamer),
		libp2p.ConnectionManager(cm),
		libp2p.Peerstore(ps),
		libp2p.ConnectionGater(g),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize libp2p host: %w", err)
	}
	g.h = h
	return h, nil
}

func parseBootnodes(addrs []string) ([]peer.AddrInfo, error) {
	bootnodes := make([]peer.AddrInfo, 0, len(addrs))
	for _, addr := range addrs {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("parse bootnode %s: %w", addr, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			return nil, fmt.Errorf("parse into peer.AddrInfo %s: %w", addr, err)
		}
		bootnodes = append(bootnodes, *info)
	}
	return bootnodes, nil
}

// Upgrade creates Host instance from host.Host.
func Upgrade(ctx context.Context, h host.Host, opts ...Opt) (*Host, error) {
	fh := &Host{
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
		Host:   h,
	}
	for _, opt := range opts {
		opt(fh)
	}
	var err error
	fh.pubsub, err = pubsub.New(ctx, fh.logger, h, fh.cfg.pubsubConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pubsub: %w", err)
	}
	fh.transport, err = NewTransport(fh.logger, h, fh.pubsub, fh.cfg.transportConfig())
	if err != nil {
		return nil, err
	}
	return fh, nil
}

// connectBootnodes fails only if none of the configured bootnodes is reachable.
func (fh *Host) connectBootnodes(ctx context.Context) error {
	bootnodes, err := parseBootnodes(fh.cfg.Bootnodes)
	if err != nil || len(bootnodes) == 0 {
		return err
	}
	var errs error
	for _, info := range bootnodes {
		err := fh.Connect(ctx, info)
		if err == nil {
			fh.logger.Info("connected to bootnode", zap.Stringer("peer", info.ID))
			return nil
		}
		fh.logger.Warn("failed to connect to bootnode", zap.Stringer("peer", info.ID), zap.Error(err))
		errs = multierr.Append(errs, err)
	}
	return fmt.Errorf("connect to bootnodes: %w", errs)
}

// PubSub returns the gossipsub wrapper of the host.
func (fh *Host) PubSub() *pubsub.GossipPubSub {
	return fh.pubsub
}

// Transport returns the unit transport of the host.
func (fh *Host) Transport() *Transport {
	return fh.transport
}

// Stop background workers and release external resources.
func (fh *Host) Stop() error {
	err := fh.transport.Close()
	if cerr := fh.Host.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to close libp2p host: %w", cerr))
	}
	return multierr.Append(err, unlock(fh.lock))
}
