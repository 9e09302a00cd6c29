// Package blob stores uploaded video bytes in an object store and hands
// back the URL clients use to fetch them.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrStorage wraps every transport or provider failure so callers can map
// it to a single error class without knowing the backend.
var ErrStorage = errors.New("blob storage failure")

// Store is implemented by every backend.
//
// Put overwrites an existing object under the same key, so retrying a failed
// upload is safe. Delete of a key that does not exist succeeds.
type Store interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrStorage, op, key, err)
}

// joinURL appends key to base with exactly one slash between them.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
