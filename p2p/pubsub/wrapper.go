package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-iusync/log"
)

// GossipPubSub wraps gossipsub topics. A topic is joined once, on the first subscription
// or publish, and stays joined for the lifetime of the instance.
type GossipPubSub struct {
	logger *zap.Logger
	pubsub *pubsub.PubSub
	cfg    Config

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

func (ps *GossipPubSub) join(topic string) (*pubsub.Topic, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if t, ok := ps.topics[topic]; ok {
		return t, nil
	}
	t, err := ps.pubsub.Join(topic)
	if err != nil {
		return nil, fmt.Errorf("join topic %s: %w", topic, err)
	}
	ps.topics[topic] = t
	return t, nil
}

// Subscribe delivers every message of the topic to handler, one at a time, until the
// subscription is canceled.
func (ps *GossipPubSub) Subscribe(topic string, handler Handler) (*Subscription, error) {
	t, err := ps.join(topic)
	if err != nil {
		return nil, err
	}
	sub, err := t.Subscribe(pubsub.WithBufferSize(ps.cfg.QueueSize))
	if err != nil {
		return nil, fmt.Errorf("subscribe to topic %s: %w", topic, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscription{topic: topic, sub: sub, cancel: cancel}
	s.eg.Go(func() error {
		ps.read(ctx, topic, sub, handler)
		return nil
	})
	return s, nil
}

func (ps *GossipPubSub) read(ctx context.Context, topic string, sub *pubsub.Subscription, handler Handler) {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, pubsub.ErrSubscriptionCancelled) {
				ps.logger.Warn("topic subscription stopped", zap.String("topic", topic), zap.Error(err))
			}
			return
		}
		start := time.Now()
		ctx := log.WithNewRequestID(ctx)
		err = handler(ctx, msg.ReceivedFrom, msg.Data)
		processedMessages.WithLabelValues(castResult(err)).Observe(time.Since(start).Seconds())
		if err != nil {
			ps.logger.Warn("topic handler failed",
				log.ZContext(ctx),
				zap.String("topic", topic),
				zap.Stringer("from", msg.ReceivedFrom),
				zap.Error(err),
			)
		}
	}
}

// Publish message to the topic.
func (ps *GossipPubSub) Publish(ctx context.Context, topic string, msg []byte) error {
	t, err := ps.join(topic)
	if err != nil {
		return err
	}
	if err := t.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to topic %v: %w", topic, err)
	}
	return nil
}

// ListPeers returns the peers known to be subscribed to the topic.
func (ps *GossipPubSub) ListPeers(topic string) []peer.ID {
	return ps.pubsub.ListPeers(topic)
}

// Subscription is an active topic subscription.
type Subscription struct {
	topic  string
	sub    *pubsub.Subscription
	cancel context.CancelFunc
	eg     errgroup.Group
	once   sync.Once
}

func (s *Subscription) Topic() string {
	return s.topic
}

// Cancel stops the delivery and waits for a running handler to return.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.sub.Cancel()
		s.cancel()
		s.eg.Wait()
	})
}

func castResult(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
