package blocklist

import (
	"context"

	"github.com/charmbracelet/log"
)

// Notifier carries "extension set changed" notifications from the mutation
// paths to the resolver. Delivery is synchronous: the local cache is cleared
// before Notify returns, so a client that just mutated a registry and then
// validates a file sees the updated blocklist. The redis broadcast for other
// instances is best effort and never blocks the mutation's outcome.
type Notifier struct {
	resolver  *Resolver
	publisher Publisher
}

// Publisher fans an invalidation out to other instances. May be nil.
type Publisher interface {
	PublishInvalidation(ctx context.Context, description string) error
}

func NewNotifier(resolver *Resolver, publisher Publisher) *Notifier {
	return &Notifier{resolver: resolver, publisher: publisher}
}

func (n *Notifier) Notify(ctx context.Context, description string) {
	log.Info("Extension registry changed", "change", description)

	n.resolver.Invalidate()

	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishInvalidation(ctx, description); err != nil {
		log.Warn("Failed to broadcast blocklist invalidation", "error", err)
	}
}
