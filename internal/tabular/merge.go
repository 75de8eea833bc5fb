package tabular

// Merger accumulates documents into one merged document. Documents are
// consumed one at a time, so a consolidation pass over many files never
// needs every input materialized at once.
//
// The merged header is the union of all input headers in first-seen
// order. Rows are concatenated in the order documents were added,
// preserving intra-document order; cells for columns a row lacks read
// as empty. Inputs whose column sets differ are tolerated.
type Merger struct {
	columns []string
	seen    map[string]struct{}
	rows    []Row
}

// NewMerger returns an empty merger. Calling Document without adding
// anything yields an empty header and zero rows.
func NewMerger() *Merger {
	return &Merger{seen: make(map[string]struct{})}
}

// Add appends doc's rows and folds its columns into the header union.
// A zero-row document contributes no rows but its columns still join
// the header.
func (m *Merger) Add(doc Document) {
	for _, col := range doc.Columns {
		if _, ok := m.seen[col]; !ok {
			m.seen[col] = struct{}{}
			m.columns = append(m.columns, col)
		}
	}
	m.rows = append(m.rows, doc.Rows...)
}

// RowCount returns the number of rows accumulated so far.
func (m *Merger) RowCount() int {
	return len(m.rows)
}

// Document returns the merged result.
func (m *Merger) Document() Document {
	return Document{
		Columns: append([]string(nil), m.columns...),
		Rows:    m.rows,
	}
}

// Merge unions docs into a single document. An empty input yields an
// empty document, not an error.
func Merge(docs []Document) Document {
	m := NewMerger()
	for _, doc := range docs {
		m.Add(doc)
	}
	return m.Document()
}
