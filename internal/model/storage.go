package model

import (
	"context"
	"io"
)

// Storage stores encrypted chunk objects. Implementations receive ciphertext
// only; plaintext never reaches the blob layer.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
