package ports

import (
	"context"
	"time"
)

// Cache is a generic key-value capability. The collector keeps the last
// successful storm payload here so operators can inspect the previous
// scan's inputs after a failed fetch cycle.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
