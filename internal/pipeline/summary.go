package pipeline

import (
	"github.com/shopspring/decimal"

	"aws-tariffs/internal/tabular"
)

// Summary describes one consolidated document.
type Summary struct {
	Rows       int
	PricedRows int
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
}

// Summarize computes the row count and the PricePerUnit range of a
// merged document. Rows whose PricePerUnit is empty or non-numeric
// count as unpriced rather than failing; field availability varies by
// service.
func Summarize(doc tabular.Document) Summary {
	s := Summary{Rows: doc.RowCount()}
	for _, row := range doc.Rows {
		raw := row.Get("PricePerUnit")
		if raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		if s.PricedRows == 0 {
			s.MinPrice, s.MaxPrice = price, price
		} else {
			if price.LessThan(s.MinPrice) {
				s.MinPrice = price
			}
			if price.GreaterThan(s.MaxPrice) {
				s.MaxPrice = price
			}
		}
		s.PricedRows++
	}
	return s
}
