// Package metadata implements the client's durable key/value store: an opaque
// string-keyed table holding raw values and JSON blobs.
package metadata

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
