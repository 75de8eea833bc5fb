// Package config holds the exporter run configuration: which services
// and regions to fetch, the column allow-list, and the on-disk layout.
// Everything the pipeline consumes is an explicit value loaded here,
// never ambient process state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"aws-tariffs/internal/tabular"
)

// DefaultColumns is the default allow-list of price-list properties to
// keep. Order is the output header order of the consolidated CSV.
var DefaultColumns = []string{
	"SKU",
	"RateCode",
	"serviceCode",
	"serviceName",
	"Product Family",
	"Location",
	"Location Type",
	"usageType",
	"Unit",
	"PriceDescription",
	"PricePerUnit",
}

// Selection narrows a universe of codes. A non-empty Include keeps only
// those codes; otherwise Exclude removes its codes; otherwise the whole
// universe passes.
type Selection struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Resolve filters all through the selection, preserving the order of
// all. Included codes not present in all are dropped.
func (s Selection) Resolve(all []string) []string {
	if len(s.Include) > 0 {
		keep := make(map[string]struct{}, len(s.Include))
		for _, code := range s.Include {
			keep[code] = struct{}{}
		}
		var out []string
		for _, code := range all {
			if _, ok := keep[code]; ok {
				out = append(out, code)
			}
		}
		return out
	}
	if len(s.Exclude) > 0 {
		drop := make(map[string]struct{}, len(s.Exclude))
		for _, code := range s.Exclude {
			drop[code] = struct{}{}
		}
		var out []string
		for _, code := range all {
			if _, ok := drop[code]; !ok {
				out = append(out, code)
			}
		}
		return out
	}
	return all
}

// Dirs is the directory layout for the three pipeline stages.
type Dirs struct {
	Raw          string `yaml:"raw"`
	Truncated    string `yaml:"truncated"`
	Consolidated string `yaml:"consolidated"`
}

// Config drives one exporter run.
type Config struct {
	Services Selection `yaml:"services"`
	Regions  Selection `yaml:"regions"`
	Currency string    `yaml:"currency"`
	Columns  []string  `yaml:"columns"`
	Dirs     Dirs      `yaml:"dirs"`
	Workers  int       `yaml:"workers"`

	// ServicesFile points at a previously dumped JSON list of service
	// codes (see the services command). When set, the pipeline uses it
	// instead of calling DescribeServices.
	ServicesFile string `yaml:"services_file"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Currency: "USD",
		Columns:  append([]string(nil), DefaultColumns...),
		Dirs: Dirs{
			Raw:          "raw_csv",
			Truncated:    "truncated_csv",
			Consolidated: "consolidated_csv",
		},
		Workers: 10,
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize backfills fields an explicit config file left empty.
func (c *Config) normalize() {
	def := Default()
	if c.Currency == "" {
		c.Currency = def.Currency
	}
	if len(c.Columns) == 0 {
		c.Columns = def.Columns
	}
	if c.Dirs.Raw == "" {
		c.Dirs.Raw = def.Dirs.Raw
	}
	if c.Dirs.Truncated == "" {
		c.Dirs.Truncated = def.Dirs.Truncated
	}
	if c.Dirs.Consolidated == "" {
		c.Dirs.Consolidated = def.Dirs.Consolidated
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
}

// AllowList returns the configured columns as the projection allow-list.
func (c *Config) AllowList() tabular.AllowList {
	return tabular.AllowList(c.Columns)
}
