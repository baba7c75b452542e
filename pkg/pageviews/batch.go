package pageviews

import (
	"context"
	"errors"
	"sync"
	"time"
)

// BatchConfig holds worker pool configuration for multi-article fetches.
type BatchConfig struct {
	// MaxConcurrency is the number of parallel article fetches. The
	// client's rate limiter still spaces the actual requests.
	MaxConcurrency int

	// Timeout bounds each individual article fetch.
	Timeout time.Duration
}

// DefaultBatchConfig returns safe defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
	}
}

type batchResult struct {
	article string
	views   int64
	err     error
}

// BatchTotals fetches total views for many articles with a bounded worker
// pool and returns a map of article to view count. Articles with no
// recorded traffic appear with zero views; articles whose fetch failed
// are omitted. This is best-effort enrichment: partial results are fine.
func (c *Client) BatchTotals(ctx context.Context, articles []string, start, end time.Time, cfg BatchConfig) map[string]int64 {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	began := time.Now()
	queue := make(chan string, len(articles))
	results := make(chan batchResult, len(articles))

	for _, article := range articles {
		queue <- article
	}
	close(queue)

	workers := cfg.MaxConcurrency
	if workers > len(articles) {
		workers = len(articles)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go c.batchWorker(ctx, cfg.Timeout, start, end, queue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	totals := make(map[string]int64, len(articles))
	failed := 0
	for result := range results {
		if result.err != nil {
			failed++
			c.logger.Warn().
				Err(result.err).
				Str("article", result.article).
				Msg("Article pageview fetch failed")
			continue
		}
		totals[result.article] = result.views
	}

	c.logger.Debug().
		Int("articles", len(articles)).
		Int("fetched", len(totals)).
		Int("failed", failed).
		Dur("duration", time.Since(began)).
		Msg("Batch pageview fetch complete")

	return totals
}

// batchWorker processes articles from the queue.
func (c *Client) batchWorker(ctx context.Context, timeout time.Duration, start, end time.Time, queue <-chan string, results chan<- batchResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for article := range queue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		views, err := c.TotalViews(fetchCtx, article, start, end)
		cancel()

		if errors.Is(err, ErrNoData) {
			// No recorded traffic reads as zero, not as a failure.
			results <- batchResult{article: article, views: 0}
			continue
		}
		results <- batchResult{article: article, views: views, err: err}
	}
}
