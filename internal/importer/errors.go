package importer

import "fmt"

// ItemError reports why one parsed item was not imported.
type ItemError struct {
	// Index is the item's position in the request.
	Index int
	Name  string
	Err   error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%q): %v", e.Index, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// ParseError reports that the parser rejected the whole input, so nothing
// was imported.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse input: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
