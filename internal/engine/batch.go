package engine

import (
	"context"

	"github.com/selimozcann/LinkGuard/internal/runner"
	"github.com/selimozcann/LinkGuard/internal/util"
)

// BatchConfig controls ReviewBatch.
type BatchConfig struct {
	Workers   int
	RateLimit int // reviews started per second, 0 = unlimited
	// Progress is called after every finished review, from worker goroutines.
	Progress func(done, total int, rep Report)
}

// ReviewBatch reviews urls concurrently and returns the reports in input
// order. URLs not reviewed before ctx ends carry an Error.
func (e *Engine) ReviewBatch(ctx context.Context, urls []string, cfg BatchConfig) []Report {
	if e.Blocklist != nil && e.Blocklist.Configured() {
		targets := make([]string, 0, len(urls))
		for _, u := range urls {
			if c := util.Parse(u); c.Valid {
				targets = append(targets, c.URL())
			}
		}
		// One batched call warms the cache for links that do not redirect.
		e.Blocklist.CheckBatch(ctx, targets)
	}

	var (
		done  int
		total = len(urls)
	)
	progress := make(chan Report)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for rep := range progress {
			done++
			if cfg.Progress != nil {
				cfg.Progress(done, total, rep)
			}
		}
	}()

	out, skipped := runner.Run(ctx, runner.Config{Workers: cfg.Workers, RateLimit: cfg.RateLimit}, urls, e.Review,
		func(_ int, rep Report) { progress <- rep })
	close(progress)
	<-finished

	for _, i := range skipped {
		out[i] = Report{Input: urls[i], Error: "not reviewed: " + errString(ctx.Err())}
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return "cancelled"
	}
	return err.Error()
}
