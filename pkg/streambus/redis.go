package streambus

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/config"
)

// redisBus publishes to Redis Streams and builds one consumer-group
// subscriber per watcher so each websocket sees the full event sequence.
type redisBus struct {
	settings config.StreamBusSettings
	client   *redis.Client
	pub      message.Publisher
	logger   watermill.LoggerAdapter

	watcherSeq atomic.Int64
}

// nextConsumer mints a consumer name unique to one watcher. Subscribe is
// called concurrently from independent websocket handlers, so the
// sequence is atomic; colliding names would split a session's stream
// between two watchers inside the consumer group.
func (b *redisBus) nextConsumer() string {
	return fmt.Sprintf("%s-%d", b.settings.RedisConsumer, b.watcherSeq.Add(1))
}

func newRedisBus(s config.StreamBusSettings) (*redisBus, error) {
	client := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
	logger := NewWatermillLogger(log.Logger)
	pub, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: rstream.DefaultMarshallerUnmarshaller{},
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "redis stream publisher")
	}
	return &redisBus{settings: s, client: client, pub: pub, logger: logger}, nil
}

func (b *redisBus) Publish(sessionID string, e chat.Envelope) error {
	payload, err := EncodeEnvelope(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return b.pub.Publish(TopicForSession(sessionID), msg)
}

func (b *redisBus) Subscribe(ctx context.Context, sessionID string) (<-chan *message.Message, func(), error) {
	sub, err := rstream.NewSubscriber(rstream.SubscriberConfig{
		Client:        b.client,
		Unmarshaller:  rstream.DefaultMarshallerUnmarshaller{},
		ConsumerGroup: b.settings.RedisGroup,
		Consumer:      b.nextConsumer(),
	}, b.logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "redis stream subscriber")
	}
	subCtx, cancel := context.WithCancel(ctx)
	ch, err := sub.Subscribe(subCtx, TopicForSession(sessionID))
	if err != nil {
		cancel()
		_ = sub.Close()
		return nil, nil, err
	}
	release := func() {
		cancel()
		_ = sub.Close()
	}
	return ch, release, nil
}

func (b *redisBus) Close() error {
	if err := b.pub.Close(); err != nil {
		return err
	}
	return b.client.Close()
}
