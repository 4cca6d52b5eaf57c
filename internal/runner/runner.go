package runner

import (
	"context"
	"sync"
	"time"
)

// Config holds settings for the runner.
type Config struct {
	Workers   int
	RateLimit int // jobs started per second, 0 = unlimited
}

// Run processes targets with cfg.Workers goroutines and returns the results
// in input order. done, when set, is called once per finished job from the
// worker goroutines. Targets not started before ctx is cancelled keep the
// zero value and are reported through the returned skipped indexes.
func Run[T any](ctx context.Context, cfg Config, targets []string, work func(ctx context.Context, target string) T, done func(idx int, res T)) (out []T, skipped []int) {
	out = make([]T, len(targets))
	finished := make([]bool, len(targets))
	mu := &sync.Mutex{}
	var (
		rateCh <-chan time.Time
		ticker *time.Ticker
	)
	if cfg.RateLimit > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(cfg.RateLimit))
		rateCh = ticker.C
		defer ticker.Stop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	type job struct {
		idx    int
		target string
	}

	jobs := make(chan job)
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				if rateCh != nil {
					select {
					case <-ctx.Done():
						continue
					case <-rateCh:
					}
				}
				if ctx.Err() != nil {
					continue
				}
				res := work(ctx, jb.target)
				mu.Lock()
				out[jb.idx] = res
				finished[jb.idx] = true
				mu.Unlock()
				if done != nil {
					done(jb.idx, res)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range targets {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{idx: i, target: t}:
			}
		}
	}()

	wg.Wait()
	for i, ok := range finished {
		if !ok {
			skipped = append(skipped, i)
		}
	}
	return out, skipped
}
