// Package redis backs the state store with Redis and relays write
// notifications over pub/sub, so a second open view of the tool picks up
// changes the way browser tabs did through the storage event.
package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
)

const changeChannel = "bb:state-changed"

type Backend struct {
	client *goredis.Client
}

func New(addr string, password string, db int) *Backend {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Backend{client: client}
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) Load(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *Backend) Save(ctx context.Context, key string, value string) error {
	if err := b.client.Set(ctx, key, value, 0).Err(); err != nil {
		return err
	}
	// Best-effort: a missed notification only delays the other view until
	// its next full read.
	_ = b.client.Publish(ctx, changeChannel, key).Err()
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return err
	}
	_ = b.client.Publish(ctx, changeChannel, key).Err()
	return nil
}

// Watch invokes onChange with the written key for every write published by
// any process sharing this Redis, including this one. It blocks until ctx is
// done.
func (b *Backend) Watch(ctx context.Context, onChange func(key string)) error {
	sub := b.client.Subscribe(ctx, changeChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			onChange(msg.Payload)
		}
	}
}
