package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV parses a document from r. skip leading lines are discarded
// before the header row; AWS price-list files carry five bookkeeping
// lines there. The source tag is attached to the document and to any
// MalformedDocumentError.
//
// An input that ends before the header yields an empty document.
func ReadCSV(r io.Reader, source string, skip int) (Document, error) {
	cr := csv.NewReader(r)
	// Metadata lines are not header-shaped; field counts are enforced
	// against the header below instead.
	cr.FieldsPerRecord = -1

	line := 0
	for i := 0; i < skip; i++ {
		if _, err := cr.Read(); err != nil {
			if err == io.EOF {
				return Document{Source: source}, nil
			}
			return Document{}, &MalformedDocumentError{Source: source, Line: line + 1, Reason: err.Error()}
		}
		line++
	}

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return Document{Source: source}, nil
		}
		return Document{}, &MalformedDocumentError{Source: source, Line: line + 1, Reason: err.Error()}
	}
	line++

	doc := Document{
		Source:  source,
		Columns: append([]string(nil), header...),
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return Document{}, &MalformedDocumentError{Source: source, Line: line, Reason: err.Error()}
		}
		if len(record) != len(header) {
			return Document{}, &MalformedDocumentError{
				Source: source,
				Line:   line,
				Reason: fmt.Sprintf("record has %d fields, header has %d", len(record), len(header)),
			}
		}
		row := make(Row, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

// WriteCSV serializes doc to w: header row first, then one record per
// row in order, with cells for absent columns left empty. Standard CSV
// quoting, UTF-8. A document with an empty header produces no output.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if len(doc.Columns) > 0 {
		if err := cw.Write(doc.Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	record := make([]string, len(doc.Columns))
	for _, row := range doc.Rows {
		for i, col := range doc.Columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
