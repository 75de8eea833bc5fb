// Package storage loads consolidated tariff rows into an analytical
// store for ad-hoc querying. Each load is tagged with a batch ID so
// successive fetches of the same price lists stay distinguishable.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aws-tariffs/internal/tabular"
)

// Batch tags one load with identity and provenance.
type Batch struct {
	ID        uuid.UUID
	FetchedAt time.Time
	Currency  string
}

// NewBatch creates a batch stamped with the current time.
func NewBatch(currency string) Batch {
	return Batch{
		ID:        uuid.New(),
		FetchedAt: time.Now().UTC(),
		Currency:  currency,
	}
}

// TariffStore persists consolidated tariff rows.
type TariffStore interface {
	// EnsureSchema creates the tariff table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// Ingest bulk inserts the document's rows tagged with batch.
	Ingest(ctx context.Context, batch Batch, doc tabular.Document) error

	Close() error
}

// Record is one tariff row mapped onto the canonical columns.
type Record struct {
	SKU              string
	RateCode         string
	ServiceCode      string
	ServiceName      string
	ProductFamily    string
	Location         string
	LocationType     string
	UsageType        string
	Unit             string
	PriceDescription string
	PricePerUnit     decimal.Decimal
	Priced           bool
}

// RecordFromRow maps a merged-document row onto the canonical tariff
// columns. An absent or unparseable price loads as unpriced zero
// rather than failing, matching the permissive projection policy.
func RecordFromRow(row tabular.Row) Record {
	rec := Record{
		SKU:              row.Get("SKU"),
		RateCode:         row.Get("RateCode"),
		ServiceCode:      row.Get("serviceCode"),
		ServiceName:      row.Get("serviceName"),
		ProductFamily:    row.Get("Product Family"),
		Location:         row.Get("Location"),
		LocationType:     row.Get("Location Type"),
		UsageType:        row.Get("usageType"),
		Unit:             row.Get("Unit"),
		PriceDescription: row.Get("PriceDescription"),
	}
	if raw := row.Get("PricePerUnit"); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			rec.PricePerUnit = price
			rec.Priced = true
		}
	}
	return rec
}
