package lock

import (
	"context"
	"errors"
)

var ErrNotHeld = errors.New("lock not held")

// Locker serialises work per key. Lock blocks until the key is free or ctx is done;
// the returned function releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
