package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aws-tariffs/internal/config"
	"aws-tariffs/internal/pricelist"
)

// fakeSource serves canned price lists keyed by service/region.
type fakeSource struct {
	services   []string
	regions    []string
	regionsErr error
	files      map[string][]string // "service/region" -> raw CSV bodies
}

func (f *fakeSource) ServiceCodes(ctx context.Context) ([]string, error) {
	return f.services, nil
}

func (f *fakeSource) Regions(ctx context.Context) ([]string, error) {
	if f.regionsErr != nil {
		return nil, f.regionsErr
	}
	return f.regions, nil
}

func (f *fakeSource) ListPriceLists(ctx context.Context, service, region, currency string, date time.Time) ([]pricelist.PriceList, error) {
	var lists []pricelist.PriceList
	for i := range f.files[service+"/"+region] {
		lists = append(lists, pricelist.PriceList{
			Arn:          fmt.Sprintf("arn:%s/%s/%d", service, region, i),
			ServiceCode:  service,
			RegionCode:   region,
			CurrencyCode: currency,
		})
	}
	return lists, nil
}

func (f *fakeSource) FileURL(ctx context.Context, arn string) (string, error) {
	return "https://pricing.test/" + arn, nil
}

func (f *fakeSource) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	key := strings.TrimPrefix(url, "https://pricing.test/arn:")
	slash := strings.LastIndex(key, "/")
	bodies := f.files[key[:slash]]
	var idx int
	fmt.Sscanf(key[slash+1:], "%d", &idx)
	return io.NopCloser(strings.NewReader(bodies[idx])), nil
}

// rawBody builds a price-list CSV body with the five metadata lines
// AWS prepends before the header.
func rawBody(rows ...string) string {
	meta := `"FormatVersion","v1.0"
"Disclaimer","Informational only"
"Publication Date","2024-01-23T00:00:00Z"
"Version","20240123000000"
"OfferCode","Test"
`
	return meta + strings.Join(rows, "\n") + "\n"
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Workers = 4
	cfg.Columns = []string{"SKU", "serviceCode", "PricePerUnit"}
	cfg.Dirs = config.Dirs{
		Raw:          filepath.Join(dir, "raw_csv"),
		Truncated:    filepath.Join(dir, "truncated_csv"),
		Consolidated: filepath.Join(dir, "consolidated_csv"),
	}
	return cfg
}

func TestPairs(t *testing.T) {
	src := &fakeSource{
		services: []string{"awskms", "AmazonEC2", "AmazonS3"},
		regions:  []string{"us-east-1", "eu-central-1"},
	}

	t.Run("sorted by service then region", func(t *testing.T) {
		cfg := testConfig(t)
		pairs, err := New(cfg, src).Pairs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []Pair{
			{"AmazonEC2", "eu-central-1"},
			{"AmazonEC2", "us-east-1"},
			{"AmazonS3", "eu-central-1"},
			{"AmazonS3", "us-east-1"},
			{"awskms", "eu-central-1"},
			{"awskms", "us-east-1"},
		}, pairs)
	})

	t.Run("service and region selections apply", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Services.Include = []string{"awskms"}
		cfg.Regions.Exclude = []string{"eu-central-1"}
		pairs, err := New(cfg, src).Pairs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []Pair{{"awskms", "us-east-1"}}, pairs)
	})

	t.Run("cached services file replaces the API call", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.ServicesFile = filepath.Join(t.TempDir(), "services.json")
		require.NoError(t, os.WriteFile(cfg.ServicesFile, []byte(`["OnlyThis"]`), 0o644))
		cfg.Regions.Include = []string{"us-east-1"}

		pairs, err := New(cfg, src).Pairs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []Pair{{"OnlyThis", "us-east-1"}}, pairs)
	})

	t.Run("falls back to built-in regions when the account API fails", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Regions.Include = []string{"us-east-1"}
		broken := &fakeSource{services: []string{"awskms"}, regionsErr: errors.New("access denied")}

		pairs, err := New(cfg, broken).Pairs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []Pair{{"awskms", "us-east-1"}}, pairs)
	})
}

func TestRunEndToEnd(t *testing.T) {
	src := &fakeSource{
		services: []string{"awskms", "AmazonEC2"},
		regions:  []string{"us-east-1"},
		files: map[string][]string{
			"AmazonEC2/us-east-1": {rawBody(
				`SKU,serviceCode,TermType`,
				`EC2A,AmazonEC2,OnDemand`,
				`EC2B,AmazonEC2,OnDemand`,
			)},
			"awskms/us-east-1": {rawBody(
				`SKU,serviceCode,PricePerUnit,TermType`,
				`KMS1,awskms,0.03,OnDemand`,
			)},
		},
	}
	date := time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC)

	run := func(t *testing.T) string {
		cfg := testConfig(t)
		out, err := New(cfg, src).Run(context.Background(), date)
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "aws-tariffs-24-01-23.csv", filepath.Base(out))
		return string(data)
	}

	want := "SKU,serviceCode,PricePerUnit\n" +
		"EC2A,AmazonEC2,\n" +
		"EC2B,AmazonEC2,\n" +
		"KMS1,awskms,0.03\n"
	first := run(t)
	assert.Equal(t, want, first)

	// Same inputs, fresh directories: byte-identical output.
	assert.Equal(t, first, run(t))
}

func TestTruncate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Dirs.Raw, 0o755))
	raw := rawBody(
		`SKU,serviceCode,PricePerUnit,Extra`,
		`A1,AmazonEC2,0.02,x`,
	)
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Dirs.Raw, "price_list_AmazonEC2_us-east-1_raw_1.csv"), []byte(raw), 0o644))

	n, err := New(cfg, nil).Truncate()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(cfg.Dirs.Truncated, "price_list_AmazonEC2_us-east-1_trunc_1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "SKU,serviceCode,PricePerUnit\nA1,AmazonEC2,0.02\n", string(data))
}

func TestConsolidate(t *testing.T) {
	t.Run("empty truncated directory yields an empty file", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.MkdirAll(cfg.Dirs.Truncated, 0o755))

		out, n, err := New(cfg, nil).Consolidate(time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Zero(t, n)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("a malformed input aborts without writing garbage", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.MkdirAll(cfg.Dirs.Truncated, 0o755))
		require.NoError(t, os.WriteFile(
			filepath.Join(cfg.Dirs.Truncated, "price_list_bad_trunc_1.csv"),
			[]byte("SKU,PricePerUnit\nonly-one-field\n"), 0o644))

		_, _, err := New(cfg, nil).Consolidate(time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed document")
	})
}
