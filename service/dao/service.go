package dao

import (
	"context"
)

// Service is a minimal persistence contract for pipeline records. The
// pipeline keeps three kinds of durable state (current recommendation,
// current pending approval, decision ledger); the first two use this generic
// contract, the ledger has a dedicated append-only interface.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context) ([]*T, error)
}
