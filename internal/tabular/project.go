package tabular

// Project reduces doc to exactly the allow-listed columns, in allow
// order. Columns outside the allow-list are dropped; allow-listed
// columns missing from doc come out as empty cells. Absence is data,
// not an error: pricing feeds vary which fields they return across
// services, and tightening this into a schema check would be a
// behavior change.
//
// Row count and row order match the input. Projecting an already
// projected document with the same allow-list is a no-op.
func Project(doc Document, allow AllowList) Document {
	out := Document{
		Source:  doc.Source,
		Columns: append([]string(nil), allow...),
		Rows:    make([]Row, 0, len(doc.Rows)),
	}
	for _, row := range doc.Rows {
		projected := make(Row, len(allow))
		for _, col := range allow {
			projected[col] = row[col]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}
