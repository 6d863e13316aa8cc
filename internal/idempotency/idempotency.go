package idempotency

import (
	"context"
	"time"

	redisadapter "github.com/robertarktes/planetarium-reservations/internal/adapters/redis"
)

// Storage persists replayed responses. The redis adapter is the production
// implementation; tests use an in-memory map.
type Storage interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error
}

type Idempotency struct {
	storage Storage
	ttl     time.Duration
}

func NewIdempotency(storage Storage, ttl time.Duration) *Idempotency {
	return &Idempotency{storage: storage, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	if key == "" {
		return nil, nil
	}
	stored, err := i.storage.Get(ctx, key)
	if err != nil || stored == nil {
		return nil, err
	}
	return &Response{Status: stored.Status, Result: stored.Result}, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	if key == "" {
		return nil
	}
	return i.storage.Set(ctx, key, redisadapter.IdempResponse{Status: resp.Status, Result: resp.Result}, i.ttl)
}
