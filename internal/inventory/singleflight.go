package inventory

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// sharedBuild collapses concurrent rebuilds of the same key into one call.
// The caller stops waiting when ctx is done; the build itself keeps running
// for the other waiters.
func sharedBuild(ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
