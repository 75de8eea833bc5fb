package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FetchRaw downloads every price list for every pair into the raw
// directory, named price_list_<service>_<region>_raw_<n>.csv with the
// body stored verbatim. A bounded worker pool caps concurrency; the
// Pricing API throttles hard beyond roughly ten parallel callers.
//
// A failed pair does not stop the others, but the first error is
// returned once all workers drain so a partial run is never mistaken
// for a complete one. Returns the number of price lists fetched.
func (r *Runner) FetchRaw(ctx context.Context, pairs []Pair, date time.Time) (int, error) {
	if err := os.MkdirAll(r.cfg.Dirs.Raw, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create raw directory: %w", err)
	}

	jobs := make(chan Pair)
	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	var firstErr error

	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range jobs {
				n, err := r.fetchPair(ctx, pair, date)
				mu.Lock()
				total += n
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					log.Error().Err(err).
						Str("service", pair.Service).Str("region", pair.Region).
						Msg("failed to fetch price lists")
				}
				mu.Unlock()
			}
		}()
	}

	for _, pair := range pairs {
		select {
		case jobs <- pair:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return total, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()
	return total, firstErr
}

func (r *Runner) fetchPair(ctx context.Context, pair Pair, date time.Time) (int, error) {
	lists, err := r.src.ListPriceLists(ctx, pair.Service, pair.Region, r.cfg.Currency, date)
	if err != nil {
		return 0, err
	}
	log.Info().Str("service", pair.Service).Str("region", pair.Region).
		Int("count", len(lists)).Msg("price lists found")

	count := 0
	for _, pl := range lists {
		url, err := r.src.FileURL(ctx, pl.Arn)
		if err != nil {
			return count, err
		}
		body, err := r.src.Download(ctx, url)
		if err != nil {
			return count, err
		}
		count++
		name := fmt.Sprintf("price_list_%s_%s_raw_%d.csv", pair.Service, pair.Region, count)
		if err := storeFile(filepath.Join(r.cfg.Dirs.Raw, name), body); err != nil {
			return count, err
		}
	}
	return count, nil
}

func storeFile(path string, body io.ReadCloser) error {
	defer body.Close()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
