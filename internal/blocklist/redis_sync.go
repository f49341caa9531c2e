package blocklist

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const (
	invalidationChannel = "filegate:blocklist:invalidate"
	redisOpTimeout      = 5 * time.Second
)

// RedisSync propagates invalidations between instances over redis pub/sub.
// Each instance invalidates its own cache synchronously on mutation; the
// broadcast only covers peers, so losing redis degrades to single-instance
// consistency rather than stale local reads.
type RedisSync struct {
	client *redis.Client
}

func NewRedisSync(client *redis.Client) *RedisSync {
	return &RedisSync{client: client}
}

func (s *RedisSync) PublishInvalidation(ctx context.Context, description string) error {
	if s == nil || s.client == nil {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	return s.client.Publish(opCtx, invalidationChannel, description).Err()
}

// Subscribe listens for peer invalidations and clears the resolver cache on
// every message. Runs until ctx is cancelled.
func (s *RedisSync) Subscribe(ctx context.Context, resolver *Resolver) {
	if s == nil || s.client == nil {
		return
	}

	pubsub := s.client.Subscribe(ctx, invalidationChannel)
	defer pubsub.Close()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) || ctx.Err() != nil {
				return
			}
			log.Error("Blocklist sync: subscription error", "error", err)
			time.Sleep(time.Second)
			continue
		}

		log.Debug("Blocklist sync: remote invalidation received", "change", msg.Payload)
		resolver.Invalidate()
	}
}
