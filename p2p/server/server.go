// Package server implements request/response over libp2p streams.
//
// A request is a varint length prefix followed by the request bytes. The reply is a
// scale encoded Response.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-varint"
	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-iusync/codec"
	"github.com/spacemeshos/go-iusync/log"
)

var (
	// ErrNotConnected is returned when peer is not connected.
	ErrNotConnected = errors.New("peer is not connected")
	// ErrRequestTooLarge is returned by the client for requests over the limit.
	ErrRequestTooLarge = errors.New("request is too large")
)

const maxErrorLen = 1024

// Opt is a type to configure a server.
type Opt func(s *Server)

// WithTimeout configures the deadline for a single request, including the response.
func WithTimeout(timeout time.Duration) Opt {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// WithLog configures logger for the server.
func WithLog(logger *zap.Logger) Opt {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithRequestSizeLimit(limit int) Opt {
	return func(s *Server) {
		s.requestLimit = limit
	}
}

// WithMetrics will enable metrics collection in the server.
func WithMetrics() Opt {
	return func(s *Server) {
		s.metrics = newTracker(s.protocol)
	}
}

// WithQueueSize parametrize number of message that will be kept in queue
// and eventually processed by server. Otherwise stream is closed immediately.
//
// Defaults to 100.
func WithQueueSize(size int) Opt {
	return func(s *Server) {
		s.queueSize = size
	}
}

// WithRequestsPerInterval parametrizes server rate limit.
//
// Defaults to 100 requests per second.
func WithRequestsPerInterval(n int, interval time.Duration) Opt {
	return func(s *Server) {
		s.requestsPerInterval = n
		s.interval = interval
	}
}

// Handler is a handler to be defined by the application.
type Handler func(context.Context, []byte) ([]byte, error)

// Host is the subset of the libp2p host used by the server.
type Host interface {
	ID() peer.ID
	Network() network.Network
	SetStreamHandler(protocol.ID, network.StreamHandler)
	RemoveStreamHandler(protocol.ID)
	NewStream(context.Context, peer.ID, ...protocol.ID) (network.Stream, error)
}

// ServerError is used by the client to represent an error returned by the server.
type ServerError struct {
	msg string
}

func NewServerError(msg string) *ServerError {
	return &ServerError{msg: msg}
}

func (*ServerError) Is(target error) bool {
	_, ok := target.(*ServerError)
	return ok
}

func (err *ServerError) Error() string {
	return fmt.Sprintf("peer error: %s", err.msg)
}

// Response is a server response.
type Response struct {
	Data  []byte
	Error string
}

func (t *Response) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, t.Data, maxResponseLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStringWithLimit(enc, t.Error, maxErrorLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *Response) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, maxResponseLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Data = field
	}
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxErrorLen)
		if err != nil {
			return total, err
		}
		total += n
		t.Error = field
	}
	return total, nil
}

const maxResponseLen = 16 << 20

type peerIDKey struct{}

func withPeerID(ctx context.Context, id peer.ID) context.Context {
	return context.WithValue(ctx, peerIDKey{}, id)
}

// ContextPeerID returns the peer that sent the request being handled.
func ContextPeerID(ctx context.Context) (peer.ID, bool) {
	id, ok := ctx.Value(peerIDKey{}).(peer.ID)
	return id, ok
}

// Server for the Handler.
type Server struct {
	logger              *zap.Logger
	protocol            string
	handler             Handler
	timeout             time.Duration
	requestLimit        int
	queueSize           int
	requestsPerInterval int
	interval            time.Duration

	metrics *tracker // metrics can be nil

	h     Host
	ready chan struct{}
}

// New server for the handler.
func New(h Host, proto string, handler Handler, opts ...Opt) *Server {
	srv := &Server{
		logger:              zap.NewNop(),
		protocol:            proto,
		handler:             handler,
		h:                   h,
		timeout:             10 * time.Second,
		requestLimit:        10240,
		queueSize:           100,
		requestsPerInterval: 100,
		interval:            time.Second,
		ready:               make(chan struct{}),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Ready is closed once Run has installed the stream handler.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Protocol returns the stream protocol served by the server.
func (s *Server) Protocol() string {
	return s.protocol
}

type request struct {
	stream   network.Stream
	received time.Time
}

// Run serves requests until ctx is canceled. The stream handler is removed on exit.
func (s *Server) Run(ctx context.Context) error {
	limit := rate.NewLimiter(rate.Every(s.interval/time.Duration(s.requestsPerInterval)), s.requestsPerInterval)
	queue := make(chan request, s.queueSize)
	if s.metrics != nil {
		s.metrics.targetQueue.Set(float64(s.queueSize))
		s.metrics.targetRps.Set(float64(limit.Limit()))
	}
	s.h.SetStreamHandler(protocol.ID(s.protocol), func(stream network.Stream) {
		select {
		case queue <- request{stream: stream, received: time.Now()}:
			if s.metrics != nil {
				s.metrics.queue.Set(float64(len(queue)))
				s.metrics.accepted.Inc()
			}
		default:
			if s.metrics != nil {
				s.metrics.dropped.Inc()
			}
			stream.Reset()
		}
	})
	defer s.h.RemoveStreamHandler(protocol.ID(s.protocol))
	close(s.ready)

	var eg errgroup.Group
	eg.SetLimit(s.queueSize)
	for {
		select {
		case <-ctx.Done():
			eg.Wait()
			return nil
		case req := <-queue:
			if err := limit.Wait(ctx); err != nil {
				req.stream.Reset()
				eg.Wait()
				return nil
			}
			eg.Go(func() error {
				ok := s.queueHandler(ctx, req.stream)
				if s.metrics != nil {
					s.metrics.serverLatency.Observe(time.Since(req.received).Seconds())
					if ok {
						s.metrics.completed.Inc()
					} else {
						s.metrics.failed.Inc()
					}
				}
				return nil
			})
		}
	}
}

func (s *Server) queueHandler(ctx context.Context, stream network.Stream) bool {
	defer stream.Close()
	stream.SetDeadline(time.Now().Add(s.timeout))
	remote := stream.Conn().RemotePeer()
	rd := bufio.NewReader(stream)
	size, err := varint.ReadUvarint(rd)
	if err != nil {
		s.logger.Debug("initial read failed",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	if size > uint64(s.requestLimit) {
		s.logger.Warn("request limit overflow",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Int("limit", s.requestLimit),
			zap.Uint64("request", size),
		)
		stream.Reset()
		return false
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rd, buf); err != nil {
		s.logger.Debug("error reading request",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	start := time.Now()
	ctx = withPeerID(log.WithNewRequestID(ctx), remote)
	var resp Response
	data, err := s.handler(ctx, buf)
	if err != nil {
		resp.Error = err.Error()
		if len(resp.Error) > maxErrorLen {
			resp.Error = resp.Error[:maxErrorLen]
		}
	} else {
		resp.Data = data
	}
	if err := writeResponse(stream, &resp); err != nil {
		s.logger.Debug("failed to write response",
			log.ZContext(ctx),
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	s.logger.Debug("protocol handler execution time",
		log.ZContext(ctx),
		zap.String("protocol", s.protocol),
		zap.Stringer("remotePeer", remote),
		zap.Duration("duration", time.Since(start)),
	)
	return resp.Error == ""
}

// Request sends a binary request to the peer and waits for the response.
func (s *Server) Request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error) {
	start := time.Now()
	data, err := s.request(ctx, pid, req)
	took := time.Since(start).Seconds()
	switch {
	case s.metrics == nil:
	case errors.Is(err, &ServerError{}):
		s.metrics.clientServerError.Inc()
		s.metrics.clientLatency.Observe(took)
	case err != nil:
		s.metrics.clientFailed.Inc()
		s.metrics.clientLatencyFailure.Observe(took)
	default:
		s.metrics.clientSucceeded.Inc()
		s.metrics.clientLatency.Observe(took)
	}
	s.logger.Debug("request execution time",
		log.ZContext(ctx),
		zap.String("protocol", s.protocol),
		zap.Stringer("peer", pid),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return data, err
}

func (s *Server) request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error) {
	if len(req) > s.requestLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrRequestTooLarge, len(req), s.requestLimit)
	}
	if s.h.Network().Connectedness(pid) != network.Connected {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, pid)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	stream, err := s.h.NewStream(network.WithNoDial(ctx, "existing connection"), pid, protocol.ID(s.protocol))
	if err != nil {
		return nil, fmt.Errorf("open stream to %s: %w", pid, err)
	}
	defer stream.Close()
	if deadline, ok := ctx.Deadline(); ok {
		stream.SetDeadline(deadline)
	}
	// unblock reads and writes if ctx is canceled before the deadline
	stop := context.AfterFunc(ctx, func() { stream.Reset() })
	defer stop()

	wr := bufio.NewWriter(stream)
	if _, err := wr.Write(varint.ToUvarint(uint64(len(req)))); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if _, err := wr.Write(req); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if err := wr.Flush(); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	var resp Response
	if _, err := codec.DecodeFrom(bufio.NewReader(stream), &resp); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("peer %s: %w", pid, ctx.Err())
		}
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if resp.Error != "" {
		return nil, NewServerError(resp.Error)
	}
	return resp.Data, nil
}

func writeResponse(w io.Writer, resp *Response) error {
	wr := bufio.NewWriter(w)
	if _, err := codec.EncodeTo(wr, resp); err != nil {
		return fmt.Errorf("failed to write response (len %d err len %d): %w",
			len(resp.Data), len(resp.Error), err)
	}
	if err := wr.Flush(); err != nil {
		return fmt.Errorf("failed to write response (len %d err len %d): %w",
			len(resp.Data), len(resp.Error), err)
	}
	return nil
}
