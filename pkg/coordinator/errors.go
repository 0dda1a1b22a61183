package coordinator

import (
	"errors"
	"fmt"
)

var (
	// ErrBucketBusy rejects a reorder or move while another is in flight on
	// the same bucket
	ErrBucketBusy   = errors.New("another reorder is in progress for this bucket")
	ErrTripNotFound = errors.New("trip not found")
)

// SyncError reports a store write that failed. By the time it is returned
// the cache has been refetched from the store.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: store sync failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsSyncError reports whether err is a SyncError
func IsSyncError(err error) bool {
	var target *SyncError
	return errors.As(err, &target)
}
