// internal/infrastructure/storage/store.go
package storage

import (
	"context"
	"errors"
)

// Keys shared by every execution context of an origin
const (
	KeyCart  = "cart"
	KeyToken = "token"
)

// Op identifies the kind of write behind a change notification
type Op string

const (
	OpSet    Op = "set"
	OpDelete Op = "delete"
)

// ErrNotFound is returned by Get when the key holds no value
var ErrNotFound = errors.New("key not found")

// Change describes a write made by some execution context
type Change struct {
	Key       string `json:"key"`
	ContextID string `json:"context_id"`
	Op        Op     `json:"op"`
}

// Subscription is an active change listener
type Subscription interface {
	Close() error
}

// Store is the origin-scoped durable key-value store seen by one execution context.
// Subscribe only reports changes made by other execution contexts of the same origin.
type Store interface {
	ContextID() string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Subscribe(ctx context.Context, key string, fn func(Change)) (Subscription, error)
}

// Factory opens the store view for one execution context of an origin
type Factory interface {
	Open(origin, contextID string) Store
}
