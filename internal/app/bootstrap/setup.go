package bootstrap

import (
	"context"

	"github.com/charmbracelet/log"

	"filegate/internal/blocklist"
	"filegate/internal/config"
	"filegate/internal/database"
	"filegate/internal/ratelimit"
	"filegate/internal/support"
	"filegate/internal/validation"
)

// Components is everything Setup wires together for the HTTP surface.
type Components struct {
	Resolver *blocklist.Resolver
	Notifier *blocklist.Notifier
	Pipeline *validation.Pipeline
	Limiter  *ratelimit.Limiter
}

// Setup loads settings, prepares the database (migrations plus the fixed
// extension seed list) and constructs the gate's components. Redis is
// optional; without it the blocklist invalidation stays instance-local.
func Setup(ctx context.Context) (*Components, error) {
	config.ReadSettings()

	if _, err := database.SetupDB(); err != nil {
		return nil, err
	}

	resolver := blocklist.NewResolver(database.ExtensionStore{})

	var publisher blocklist.Publisher
	if client, err := support.GetRedisClient(); err != nil {
		log.Warn("Redis unavailable, blocklist invalidation stays local", "error", err)
	} else {
		sync := blocklist.NewRedisSync(client)
		publisher = sync
		go sync.Subscribe(ctx, resolver)
	}

	notifier := blocklist.NewNotifier(resolver, publisher)
	pipeline := validation.NewPipeline(resolver)

	cfg := config.GetConfig()
	limiter := ratelimit.NewLimiter(
		config.GetRateLimitWindow(),
		int(cfg.RateLimit.UploadPerWindow),
		int(cfg.RateLimit.StandardPerWindow),
	)
	go limiter.RunSweeper(ctx, config.GetSweepInterval())

	return &Components{
		Resolver: resolver,
		Notifier: notifier,
		Pipeline: pipeline,
		Limiter:  limiter,
	}, nil
}
