package pricelist

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/account"
)

// DefaultRegions is the commercial-partition region list used when the
// Account API is unavailable. China (cn-*) and GovCloud (us-gov-*) are
// not served by the public Pricing API and are not listed.
var DefaultRegions = []string{
	"af-south-1",
	"ap-east-1",
	"ap-northeast-1",
	"ap-northeast-2",
	"ap-northeast-3",
	"ap-south-1",
	"ap-south-2",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-southeast-3",
	"ap-southeast-4",
	"ca-central-1",
	"ca-west-1",
	"eu-central-1",
	"eu-central-2",
	"eu-north-1",
	"eu-south-1",
	"eu-south-2",
	"eu-west-1",
	"eu-west-2",
	"eu-west-3",
	"il-central-1",
	"me-central-1",
	"me-south-1",
	"sa-east-1",
	"us-east-1",
	"us-east-2",
	"us-west-1",
	"us-west-2",
}

// Regions lists the region codes available to the account via the
// Account API, sorted. Callers that cannot reach the Account API can
// fall back to DefaultRegions.
func (c *Client) Regions(ctx context.Context) ([]string, error) {
	var regions []string
	p := account.NewListRegionsPaginator(c.account, &account.ListRegionsInput{})
	for p.HasMorePages() {
		var page *account.ListRegionsOutput
		err := c.do(ctx, "list regions", func(ctx context.Context) error {
			var err error
			page, err = p.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, r := range page.Regions {
			regions = append(regions, aws.ToString(r.RegionName))
		}
	}
	sort.Strings(regions)
	return regions, nil
}
