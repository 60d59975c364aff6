// Package simulate stands in for remote calls the storefront does not make.
package simulate

import (
	"context"
	"time"
)

// Delay blocks for d or until ctx is done, whichever comes first.
func Delay(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
