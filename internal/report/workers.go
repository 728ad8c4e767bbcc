package report

import (
	"runtime"
	"sync"
)

// mapGroups runs fn over the keys on a bounded worker pool and returns the
// results in key order. Workers must be pure: all working-store mutation
// happens on the coordinator once the batch is back.
func mapGroups[K any, R any](workers int, keys []K, fn func(K) R) []R {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(keys) {
		workers = len(keys)
	}

	results := make([]R, len(keys))
	if len(keys) == 0 {
		return results
	}

	items := make(chan int, len(keys))
	for i := range keys {
		items <- i
	}
	close(items)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range items {
				results[i] = fn(keys[i])
			}
		}()
	}
	wg.Wait()

	return results
}
