// Package storage provides whole-value blob persistence behind a small
// key-value port. Values are always written and read in full; there is no
// partial or range access.
package storage

import (
	"context"
	"errors"
)

// Well-known blob keys.
const (
	KeyUsers       = "users"
	KeyTasks       = "tasks"
	KeyCurrentUser = "currentUser"
)

var ErrKeyNotFound = errors.New("blob key not found")

// Blob is the persistence port shared by every backend. Save replaces the
// whole value under key; Load returns ErrKeyNotFound for absent keys.
type Blob interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
