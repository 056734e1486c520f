package client

import (
	"context"
	"sync"
)

// fanOut runs fn(i) for i in [0, n) with at most limit goroutines in
// flight, then waits for the whole batch. Callers correlate results by
// positional index, so fn must write only to its own slot.
func fanOut(ctx context.Context, n, limit int, fn func(ctx context.Context, i int)) {
	if limit <= 0 || limit > n {
		limit = n
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, i)
		}(i)
	}
	wg.Wait()
}
