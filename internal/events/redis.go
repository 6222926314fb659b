package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisBridge mirrors locally published events to a Redis channel and replays
// events published by other instances onto the local bus.
type RedisBridge struct {
	local   *Bus
	rdb     *redis.Client
	channel string
	origin  string
	loggerf func(format string, args ...interface{})
}

func NewRedisBridge(local *Bus, rdb *redis.Client, channel string) *RedisBridge {
	return &RedisBridge{
		local:   local,
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		loggerf: log.Printf,
	}
}

func (r *RedisBridge) Publish(ctx context.Context, e Event) {
	r.local.Publish(ctx, e)

	data, err := json.Marshal(envelope{Origin: r.origin, Event: e})
	if err != nil {
		r.loggerf("level=error msg=event_encode_failed kind=%s err=%v", e.Kind, err)
		return
	}
	if err := r.rdb.Publish(ctx, r.channel, data).Err(); err != nil {
		r.loggerf("level=warn msg=event_redis_publish_failed kind=%s err=%v", e.Kind, err)
	}
}

// Run relays remote events until ctx is cancelled.
func (r *RedisBridge) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			r.handleRemote(ctx, msg.Payload)
		}
	}
}

func (r *RedisBridge) handleRemote(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.loggerf("level=warn msg=event_decode_failed err=%v", err)
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.local.Publish(ctx, env.Event)
}
