// Package parallel provides small helpers for splitting row-wise work across
// goroutines. The helpers have no ordering-visible effect: callers receive
// disjoint [start, end) ranges and must not share mutable state across them.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits n units of work into contiguous chunks, one per
// available CPU, and runs fn on each chunk concurrently. Blocks until all
// chunks complete. fn is called with half-open ranges covering [0, n).
func Parallelize(n int, fn func(start, end int)) {
	ParallelizeWithWorkers(n, runtime.GOMAXPROCS(0), fn)
}

// ParallelizeWithWorkers is Parallelize with an explicit worker bound.
func ParallelizeWithWorkers(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 1 || n == 1 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when n is below threshold,
// avoiding goroutine overhead on small inputs.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		fn(0, n)
		return
	}
	Parallelize(n, fn)
}
