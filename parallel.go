// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import "golang.org/x/sync/errgroup"

// chunks handed to workers are a multiple of this many elements so
// that no two workers write the same cache line of a uint8 result
const chunkAlign = 64

// Call fn on [lo, hi) ranges covering [0, n).  The ranges are processed
// concurrently if n is large enough, sequentially otherwise.
func (c *Counter) run(n int, fn func(lo, hi int)) {
	if c.threshold <= 0 || n < c.threshold || c.workers < 2 {
		fn(0, n)
		return
	}

	chunk := (n + c.workers - 1) / c.workers
	chunk = (chunk + chunkAlign - 1) &^ (chunkAlign - 1)

	var g errgroup.Group
	g.SetLimit(c.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}

	// workers never fail
	_ = g.Wait()
}
