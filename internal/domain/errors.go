package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound is returned by object store reads when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNoAttachment is returned when a received mail carries no attachment part.
	ErrNoAttachment = errors.New("no attachment found in mail")
)

// ParseError describes one row that failed structural or type decoding.
// Collected per row, never fatal to the batch.
type ParseError struct {
	Row int
	Err error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes one record that decoded successfully but violates
// a domain rule.
type ValidationError struct {
	Record Record
	Rule   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s for record %d: %s, %s", e.Rule, e.Record.ID, e.Record.StartDate, e.Record.EndDate)
}
