// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff polls op up to maxAttempts times, doubling the delay from
// baseBackoff after each attempt. It is how exec sessions are inspected until
// the engine reports an exit code: op asks to retry while the session is
// still running or the engine answered with a transient error. The delay is
// cut short when ctx is done.
//
// op returns (retry bool, err error). A nil err ends the polling with
// success; a non-nil err with retry false ends it with that error. On
// exhaustion the last error is returned.
func RetryWithBackoff(
	ctx context.Context,
	maxAttempts int,
	baseBackoff time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			timer := time.NewTimer(baseBackoff * time.Duration(1<<(attempt-1)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-timer.C:
			}
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}
