// Package events fans referral store events out to operators.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/folio/site-server-go/internal/model"
)

type Publisher interface {
	Publish(ctx context.Context, event model.StoreEvent)
}

// Multi publishes to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event model.StoreEvent) {
	for _, p := range m {
		p.Publish(ctx, event)
	}
}

// LogPublisher writes events to the global logger. Errors and records served
// or stored by the fallback log at warn so split-brain shows up in the logs.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event model.StoreEvent) {
	var e *zerolog.Event
	if servedByFallback(event) || event.Result == model.StoreResultError {
		e = log.Warn()
	} else {
		e = log.Debug()
	}
	if event.Error != "" {
		e = e.Str("error", event.Error)
	}
	e.Str("op", string(event.Op)).
		Str("slug", event.Slug).
		Str("backend", string(event.Backend)).
		Str("result", string(event.Result)).
		Msg("referral store event")
}

func servedByFallback(event model.StoreEvent) bool {
	if event.Backend != model.BackendFallback {
		return false
	}
	return event.Result == model.StoreResultHit || event.Result == model.StoreResultOK
}

// RedisPublisher publishes events as JSON on a pub/sub channel. Publishing
// is best effort.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event model.StoreEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal store event")
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("channel", p.channel).Msg("failed to publish store event")
	}
}
