// tariffs downloads AWS price lists, strips unused columns, and
// consolidates everything into a single CSV file.
//
// Usage:
//   tariffs fetch --services AmazonEC2,awskms --regions us-east-1,eu-central-1
//   tariffs services --json aws_services_list.json
//   tariffs load --sink clickhouse
//
// Further documentation:
// * https://docs.aws.amazon.com/awsaccountbilling/latest/aboutv2/using-the-aws-price-list-bulk-api-fetching-price-list-files.html
// * https://docs.aws.amazon.com/awsaccountbilling/latest/aboutv2/reading-service-price-list-file-for-services.html
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"aws-tariffs/internal/config"
	"aws-tariffs/internal/pipeline"
	"aws-tariffs/internal/pricelist"
	"aws-tariffs/internal/storage"
	"aws-tariffs/internal/tabular"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:    "tariffs",
		Usage:   "Consolidate AWS price lists into a single CSV",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"TARIFFS_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"TARIFFS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "api-region",
				Value:   pricelist.DefaultAPIRegion,
				Usage:   "Region hosting the Pricing API endpoint",
				EnvVars: []string{"TARIFFS_API_REGION"},
			},
		},

		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},

		Commands: []*cli.Command{
			fetchCommand(),
			truncateCommand(),
			consolidateCommand(),
			servicesCommand(),
			regionsCommand(),
			loadCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// FETCH / TRUNCATE / CONSOLIDATE COMMANDS
// =============================================================================

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch price lists, truncate columns, and consolidate into one CSV",
		Flags: append(selectionFlags(),
			&cli.StringFlag{
				Name:  "date",
				Usage: "Validity date of the price lists (YYYY-MM-DD, default today)",
			},
			&cli.StringFlag{
				Name:    "currency",
				Usage:   "Currency to fetch price lists for",
				EnvVars: []string{"TARIFFS_CURRENCY"},
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel fetch workers (the Pricing API throttles beyond ~10)",
			},
		),
		Action: runFetch,
	}
}

func truncateCommand() *cli.Command {
	return &cli.Command{
		Name:   "truncate",
		Usage:  "Re-run column truncation over an existing raw directory",
		Action: runTruncate,
	}
}

func consolidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "consolidate",
		Usage: "Re-run consolidation over an existing truncated directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "Date stamped into the output file name (YYYY-MM-DD, default today)",
			},
		},
		Action: runConsolidate,
	}
}

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "services",
			Aliases: []string{"s"},
			Usage:   "Service codes to fetch (default: all)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-services",
			Usage: "Service codes to skip (ignored when --services is set)",
		},
		&cli.StringSliceFlag{
			Name:    "regions",
			Aliases: []string{"r"},
			Usage:   "Region codes to fetch (default: all available)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-regions",
			Usage: "Region codes to skip (ignored when --regions is set)",
		},
	}
}

func runFetch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	validity, err := validityDate(c)
	if err != nil {
		return err
	}

	client, err := pricelist.New(c.Context, c.String("api-region"))
	if err != nil {
		return err
	}

	out, err := pipeline.New(cfg, client).Run(c.Context, validity)
	if err != nil {
		return err
	}
	log.Info().Str("output", out).Msg("consolidated tariff file written")
	return nil
}

func runTruncate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, err = pipeline.New(cfg, nil).Truncate()
	return err
}

func runConsolidate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	validity, err := validityDate(c)
	if err != nil {
		return err
	}
	out, _, err := pipeline.New(cfg, nil).Consolidate(validity)
	if err != nil {
		return err
	}
	log.Info().Str("output", out).Msg("consolidated tariff file written")
	return nil
}

// =============================================================================
// SERVICES / REGIONS COMMANDS
// =============================================================================

func servicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "services",
		Usage: "List the service codes known to the Pricing API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "json",
				Usage: "Also dump the list as JSON to this path (reusable via services_file)",
			},
		},
		Action: runServices,
	}
}

func runServices(c *cli.Context) error {
	client, err := pricelist.New(c.Context, c.String("api-region"))
	if err != nil {
		return err
	}
	codes, err := client.ServiceCodes(c.Context)
	if err != nil {
		return err
	}
	for _, code := range codes {
		fmt.Println(code)
	}
	if path := c.String("json"); path != "" {
		data, err := json.Marshal(codes)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write services file: %w", err)
		}
		log.Info().Int("services", len(codes)).Str("path", path).Msg("service list stored")
	}
	return nil
}

func regionsCommand() *cli.Command {
	return &cli.Command{
		Name:   "regions",
		Usage:  "List the region codes available to the account",
		Action: runRegions,
	}
}

func runRegions(c *cli.Context) error {
	client, err := pricelist.New(c.Context, c.String("api-region"))
	if err != nil {
		return err
	}
	regions, err := client.Regions(c.Context)
	if err != nil {
		log.Warn().Err(err).Msg("account API unavailable, using built-in region list")
		regions = pricelist.DefaultRegions
	}
	for _, region := range regions {
		fmt.Println(region)
	}
	return nil
}

// =============================================================================
// LOAD COMMAND
// =============================================================================

func loadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Load a consolidated tariff CSV into an analytical store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Consolidated CSV to load (default: newest in the consolidated directory)",
			},
			&cli.StringFlag{
				Name:  "sink",
				Value: "clickhouse",
				Usage: "Target store (clickhouse, postgres)",
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "tariffs",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Usage:   "Postgres DSN (for --sink postgres)",
				EnvVars: []string{"TARIFFS_POSTGRES_DSN"},
			},
		},
		Action: runLoad,
	}
}

func runLoad(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	input := c.String("input")
	if input == "" {
		input, err = newestConsolidated(cfg.Dirs.Consolidated)
		if err != nil {
			return err
		}
	}
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", input, err)
	}
	doc, err := tabular.ReadCSV(f, filepath.Base(input), 0)
	f.Close()
	if err != nil {
		return err
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(c.Context); err != nil {
		return err
	}
	batch := storage.NewBatch(cfg.Currency)
	if err := store.Ingest(c.Context, batch, doc); err != nil {
		return err
	}
	log.Info().Str("batch_id", batch.ID.String()).Str("input", input).
		Int("rows", doc.RowCount()).Msg("tariff rows loaded")
	return nil
}

func openStore(c *cli.Context) (storage.TariffStore, error) {
	switch sink := c.String("sink"); sink {
	case "clickhouse":
		return storage.NewClickHouseStore(&storage.ClickHouseConfig{
			Host:     c.String("clickhouse-host"),
			Port:     c.Int("clickhouse-port"),
			Database: c.String("clickhouse-database"),
			Username: c.String("clickhouse-user"),
			Password: c.String("clickhouse-password"),
		})
	case "postgres":
		dsn := c.String("postgres-dsn")
		if dsn == "" {
			return nil, fmt.Errorf("--postgres-dsn is required for --sink postgres")
		}
		return storage.NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unknown sink: %s", sink)
	}
}

func newestConsolidated(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "aws-tariffs-*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no consolidated file found in %s", dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the YAML config and applies flag overrides on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("currency") {
		cfg.Currency = c.String("currency")
	}
	if c.IsSet("services") {
		cfg.Services.Include = c.StringSlice("services")
	}
	if c.IsSet("exclude-services") {
		cfg.Services.Exclude = c.StringSlice("exclude-services")
	}
	if c.IsSet("regions") {
		cfg.Regions.Include = c.StringSlice("regions")
	}
	if c.IsSet("exclude-regions") {
		cfg.Regions.Exclude = c.StringSlice("exclude-regions")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	return cfg, nil
}

func validityDate(c *cli.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.String("date"))
	if raw == "" {
		return time.Now().UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
	}
	return parsed, nil
}
