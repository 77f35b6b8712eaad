package main

import (
	"context"
	"fmt"
)

// ExternalAction pushes a desired size to an externally scaled resource. The
// call is synchronous: a nil return means the external system accepted the
// update, anything else is treated as total failure and retried on the next
// pass.
type ExternalAction interface {
	Update(ctx context.Context, handle ResourceHandle, desired int32) error
}

// ExternalActionFailedError reports that the external update call did not
// succeed. The recorded trigger is never advanced when this is returned, so a
// later pass with the same desired value retries the call.
type ExternalActionFailedError struct {
	Handle  ResourceHandle
	Desired int32
	Err     error
}

func (e *ExternalActionFailedError) Error() string {
	return fmt.Sprintf("external update of %s to desired size %d failed: %v", e.Handle.Key(), e.Desired, e.Err)
}

func (e *ExternalActionFailedError) Unwrap() error {
	return e.Err
}
