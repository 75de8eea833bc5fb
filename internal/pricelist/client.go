// Package pricelist wraps the AWS Pricing API surface the exporter
// needs: service discovery, price-list enumeration, file URL
// resolution, and the price-list file download itself. Retries for
// throttled API calls and flaky downloads live here, not in the
// transformation core.
package pricelist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/account"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
)

// DefaultAPIRegion hosts the Pricing API endpoint used by default. The
// API is only served from a handful of regions.
const DefaultAPIRegion = "eu-central-1"

// MetadataLines is the number of bookkeeping lines AWS prepends to a
// price-list CSV file before the actual header row.
const MetadataLines = 5

const (
	maxRetries = 3
	retryStep  = 2 * time.Second
)

// PriceList identifies one downloadable price list.
type PriceList struct {
	Arn          string
	ServiceCode  string
	RegionCode   string
	CurrencyCode string
}

// Client calls the AWS Pricing and Account APIs.
type Client struct {
	pricing *pricing.Client
	account *account.Client
	httpc   *http.Client
}

// New builds a client against the Pricing API endpoint in apiRegion,
// using the ambient AWS credential chain.
func New(ctx context.Context, apiRegion string) (*Client, error) {
	if apiRegion == "" {
		apiRegion = DefaultAPIRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(apiRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Client{
		pricing: pricing.NewFromConfig(cfg),
		account: account.NewFromConfig(cfg),
		httpc:   &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// ServiceCodes lists every service code known to the Pricing API,
// sorted.
func (c *Client) ServiceCodes(ctx context.Context) ([]string, error) {
	var codes []string
	p := pricing.NewDescribeServicesPaginator(c.pricing, &pricing.DescribeServicesInput{})
	for p.HasMorePages() {
		var page *pricing.DescribeServicesOutput
		err := c.do(ctx, "describe services", func(ctx context.Context) error {
			var err error
			page, err = p.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, svc := range page.Services {
			codes = append(codes, aws.ToString(svc.ServiceCode))
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// ListPriceLists returns the price lists effective at date for one
// service, region, and currency.
func (c *Client) ListPriceLists(ctx context.Context, service, region, currency string, date time.Time) ([]PriceList, error) {
	in := &pricing.ListPriceListsInput{
		ServiceCode:   aws.String(service),
		RegionCode:    aws.String(region),
		CurrencyCode:  aws.String(currency),
		EffectiveDate: aws.Time(date),
	}
	var lists []PriceList
	p := pricing.NewListPriceListsPaginator(c.pricing, in)
	for p.HasMorePages() {
		var page *pricing.ListPriceListsOutput
		err := c.do(ctx, "list price lists", func(ctx context.Context) error {
			var err error
			page, err = p.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, pl := range page.PriceLists {
			lists = append(lists, PriceList{
				Arn:          aws.ToString(pl.PriceListArn),
				ServiceCode:  service,
				RegionCode:   aws.ToString(pl.RegionCode),
				CurrencyCode: aws.ToString(pl.CurrencyCode),
			})
		}
	}
	return lists, nil
}

// FileURL resolves the presigned CSV download URL for a price list.
func (c *Client) FileURL(ctx context.Context, arn string) (string, error) {
	var out *pricing.GetPriceListFileUrlOutput
	err := c.do(ctx, "get price list file url", func(ctx context.Context) error {
		var err error
		out, err = c.pricing.GetPriceListFileUrl(ctx, &pricing.GetPriceListFileUrlInput{
			PriceListArn: aws.String(arn),
			FileFormat:   aws.String("csv"),
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.Url), nil
}

// do runs fn, retrying throttled calls with linear backoff. The
// Pricing API throttles aggressively when many service/region pairs
// are fetched, so every API call goes through here.
func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !isThrottle(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		delay := time.Duration(attempt+1) * retryStep
		log.Debug().Str("op", op).Int("attempt", attempt+1).Dur("backoff", delay).
			Msg("pricing API throttled, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isThrottle(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "Throttling", "TooManyRequestsException", "RequestLimitExceeded":
		return true
	}
	return false
}
