// Package tabular implements the column-projection and multi-source
// merge pipeline applied to price-list documents: strip a document down
// to an allow-listed set of columns, then union many such documents
// under a single consistent header.
package tabular

// Row maps column names to cell values. A column absent from the map
// reads as the empty cell value.
type Row map[string]string

// Get returns the cell value for col, or empty if the row lacks it.
func (r Row) Get(col string) string {
	return r[col]
}

// Document is an ordered sequence of rows of named string fields.
// Columns carries the header in output order; a column listed there is
// treated as present (possibly empty) in every row.
type Document struct {
	// Source tags where the document came from, e.g. "AmazonEC2/us-east-1".
	// Used for diagnostics only.
	Source  string
	Columns []string
	Rows    []Row
}

// RowCount returns the number of data rows.
func (d Document) RowCount() int {
	return len(d.Rows)
}

// AllowList is an ordered set of column names. Order is significant:
// it defines both the projection filter and the output header order.
type AllowList []string

// Contains reports whether col is allow-listed.
func (a AllowList) Contains(col string) bool {
	for _, c := range a {
		if c == col {
			return true
		}
	}
	return false
}
