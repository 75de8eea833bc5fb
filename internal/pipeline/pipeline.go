// Package pipeline runs the three stages that turn per-service AWS
// price lists into one consolidated CSV: fetch raw files, truncate
// them through the column allow-list, and consolidate the results.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"aws-tariffs/internal/config"
	"aws-tariffs/internal/pricelist"
)

// Source is the slice of the Pricing API the fetch stage consumes.
// *pricelist.Client satisfies it.
type Source interface {
	ServiceCodes(ctx context.Context) ([]string, error)
	Regions(ctx context.Context) ([]string, error)
	ListPriceLists(ctx context.Context, service, region, currency string, date time.Time) ([]pricelist.PriceList, error)
	FileURL(ctx context.Context, arn string) (string, error)
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Pair is one (service, region) fetch unit.
type Pair struct {
	Service string
	Region  string
}

// Runner executes pipeline stages for one configuration. The truncate
// and consolidate stages only touch the filesystem; src may be nil for
// runners that never fetch.
type Runner struct {
	cfg *config.Config
	src Source
}

// New creates a runner.
func New(cfg *config.Config, src Source) *Runner {
	return &Runner{cfg: cfg, src: src}
}

// Run executes fetch, truncate, and consolidate in order and returns
// the consolidated file path.
func (r *Runner) Run(ctx context.Context, date time.Time) (string, error) {
	pairs, err := r.Pairs(ctx)
	if err != nil {
		return "", err
	}
	log.Info().Int("pairs", len(pairs)).Msg("starting price list fetch")

	fetched, err := r.FetchRaw(ctx, pairs, date)
	if err != nil {
		return "", err
	}
	if fetched == 0 {
		log.Warn().Msg("no price list found")
	}

	if _, err := r.Truncate(); err != nil {
		return "", err
	}
	out, _, err := r.Consolidate(date)
	return out, err
}

// Pairs enumerates the service/region pairs to fetch, sorted by
// service then region. Sorting here, not fetch completion order, is
// what makes the consolidated output reproducible across runs.
func (r *Runner) Pairs(ctx context.Context) ([]Pair, error) {
	services, err := r.services(ctx)
	if err != nil {
		return nil, err
	}
	regions, err := r.regions(ctx)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(services)*len(regions))
	for _, svc := range services {
		for _, region := range regions {
			pairs = append(pairs, Pair{Service: svc, Region: region})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Service != pairs[j].Service {
			return pairs[i].Service < pairs[j].Service
		}
		return pairs[i].Region < pairs[j].Region
	})
	return pairs, nil
}

func (r *Runner) services(ctx context.Context) ([]string, error) {
	var all []string
	if r.cfg.ServicesFile != "" {
		data, err := os.ReadFile(r.cfg.ServicesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read services file: %w", err)
		}
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, fmt.Errorf("failed to parse services file: %w", err)
		}
	} else {
		var err error
		all, err = r.src.ServiceCodes(ctx)
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(all)
	return r.cfg.Services.Resolve(all), nil
}

func (r *Runner) regions(ctx context.Context) ([]string, error) {
	all, err := r.src.Regions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("account API unavailable, using built-in region list")
		all = pricelist.DefaultRegions
	}
	return r.cfg.Regions.Resolve(all), nil
}
