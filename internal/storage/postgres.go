package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"aws-tariffs/internal/tabular"
)

// PostgresStore implements TariffStore on Postgres using COPY for the
// bulk load.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tariff table if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS aws_tariffs (
			batch_id          UUID NOT NULL,
			fetched_at        TIMESTAMPTZ NOT NULL,
			currency          TEXT NOT NULL,
			sku               TEXT NOT NULL,
			rate_code         TEXT NOT NULL,
			service_code      TEXT NOT NULL,
			service_name      TEXT NOT NULL,
			product_family    TEXT NOT NULL,
			location          TEXT NOT NULL,
			location_type     TEXT NOT NULL,
			usage_type        TEXT NOT NULL,
			unit              TEXT NOT NULL,
			price_description TEXT NOT NULL,
			price_per_unit    NUMERIC(18, 10) NOT NULL,
			priced            BOOLEAN NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create tariff table: %w", err)
	}
	return nil
}

// Ingest bulk inserts the document's rows inside one transaction.
func (s *PostgresStore) Ingest(ctx context.Context, batch Batch, doc tabular.Document) error {
	if doc.RowCount() == 0 {
		return nil
	}
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := txn.PrepareContext(ctx, pq.CopyIn("aws_tariffs",
		"batch_id", "fetched_at", "currency",
		"sku", "rate_code", "service_code", "service_name", "product_family",
		"location", "location_type", "usage_type", "unit", "price_description",
		"price_per_unit", "priced",
	))
	if err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, row := range doc.Rows {
		rec := RecordFromRow(row)
		if _, err := stmt.ExecContext(ctx,
			batch.ID.String(), batch.FetchedAt, batch.Currency,
			rec.SKU, rec.RateCode, rec.ServiceCode, rec.ServiceName, rec.ProductFamily,
			rec.Location, rec.LocationType, rec.UsageType, rec.Unit, rec.PriceDescription,
			rec.PricePerUnit.String(), rec.Priced,
		); err != nil {
			stmt.Close()
			txn.Rollback()
			return fmt.Errorf("failed to copy row: %w", err)
		}
	}

	// Flush the copy buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		txn.Rollback()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to close copy: %w", err)
	}
	return txn.Commit()
}
