package tabular

import "fmt"

// MalformedDocumentError reports a document whose records are not
// uniformly shaped against its header, e.g. a non-tabular payload or a
// record with the wrong field count. The error identifies the offending
// input so a failed document never corrupts ones already merged.
type MalformedDocumentError struct {
	Source string
	Line   int
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("malformed document %s: line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed document: line %d: %s", e.Line, e.Reason)
}
