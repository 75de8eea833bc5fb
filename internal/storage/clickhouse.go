package storage

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"aws-tariffs/internal/tabular"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// ClickHouseStore implements TariffStore on ClickHouse, the preferred
// sink for the high-cardinality SKU data a full fetch produces.
type ClickHouseStore struct {
	conn clickhouse.Conn
}

// NewClickHouseStore connects to ClickHouse over the native protocol.
func NewClickHouseStore(cfg *ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &ClickHouseStore{conn: conn}, nil
}

// Ping checks connectivity.
func (s *ClickHouseStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the connection.
func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the tariff table if missing.
func (s *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	return s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS aws_tariffs (
			batch_id          UUID,
			fetched_at        DateTime,
			currency          LowCardinality(String),
			sku               String,
			rate_code         String,
			service_code      LowCardinality(String),
			service_name      String,
			product_family    LowCardinality(String),
			location          String,
			location_type     LowCardinality(String),
			usage_type        String,
			unit              LowCardinality(String),
			price_description String,
			price_per_unit    Decimal(18, 10),
			priced            UInt8
		) ENGINE = MergeTree()
		ORDER BY (service_code, location, sku, rate_code)
	`)
}

// Ingest bulk inserts the document's rows using a prepared batch.
func (s *ClickHouseStore) Ingest(ctx context.Context, batch Batch, doc tabular.Document) error {
	if doc.RowCount() == 0 {
		return nil
	}
	b, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO aws_tariffs (
			batch_id, fetched_at, currency,
			sku, rate_code, service_code, service_name, product_family,
			location, location_type, usage_type, unit, price_description,
			price_per_unit, priced
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, row := range doc.Rows {
		rec := RecordFromRow(row)
		if err := b.Append(
			batch.ID, batch.FetchedAt, batch.Currency,
			rec.SKU, rec.RateCode, rec.ServiceCode, rec.ServiceName, rec.ProductFamily,
			rec.Location, rec.LocationType, rec.UsageType, rec.Unit, rec.PriceDescription,
			rec.PricePerUnit, boolToUInt8(rec.Priced),
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}
	return b.Send()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
