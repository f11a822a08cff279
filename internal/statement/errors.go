package statement

import "fmt"

// ParseError reports why a statement could not be summarized. Row and Line
// are zero when the failure is not tied to a data row.
type ParseError struct {
	Row    int    // 1-based data row, header excluded
	Line   int    // line in the input file
	Column string // header of the offending column
	Value  string // offending cell
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Column != "" {
		msg = fmt.Sprintf("column %q: %s", e.Column, msg)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d (line %d): %s", e.Row, e.Line, msg)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
