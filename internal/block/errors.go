package block

import "fmt"

// ParseError is a soft, per-file or per-block diagnostic collected during a
// parse pass. It never aborts a batch on its own.
type ParseError struct {
	Message string
	File    string
	Line    int
	Column  int
	Subject *Range
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d,%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// ParseResult is the outcome of parsing a single file. A file with zero
// declared blocks is a valid, empty result, not an error.
type ParseResult struct {
	Blocks []*Block
	Errors []ParseError
}

// Copy returns a deep copy of the result. The parse cache copies on both the
// read and write path so cached results and caller-held results never share
// mutable state.
func (r *ParseResult) Copy() *ParseResult {
	if r == nil {
		return nil
	}
	out := &ParseResult{}
	if r.Blocks != nil {
		out.Blocks = make([]*Block, len(r.Blocks))
		for i, b := range r.Blocks {
			out.Blocks[i] = b.Copy()
		}
	}
	if r.Errors != nil {
		out.Errors = make([]ParseError, len(r.Errors))
		copy(out.Errors, r.Errors)
		for i := range out.Errors {
			if out.Errors[i].Subject != nil {
				subject := *r.Errors[i].Subject
				out.Errors[i].Subject = &subject
			}
		}
	}
	return out
}
