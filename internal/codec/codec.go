// Package codec decodes and encodes the tabular attachment format: delimited
// text with a required header row and columns id, start_date, end_date.
package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/ksemenov/inbox_validator/internal/domain"
)

// Decode parses raw delimited text into records. Each row is decoded
// independently: a malformed row is collected as a ParseError carrying the
// physical input line and does not abort decoding of the rows after it.
// Successfully decoded rows keep input order. The id column also matches its
// case-insensitive alias "ID".
func Decode(raw string) ([]domain.Record, []domain.ParseError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(raw))

	header, err := reader.Read()
	if err != nil {
		return nil, []domain.ParseError{{Row: 1, Err: fmt.Errorf("failed to read header: %w", err)}}
	}

	dec, err := csvutil.NewDecoder(reader, normalizeHeader(header)...)
	if err != nil {
		return nil, []domain.ParseError{{Row: 1, Err: fmt.Errorf("failed to create decoder: %w", err)}}
	}

	var (
		records     []domain.Record
		parseErrors []domain.ParseError
	)

	for {
		var record domain.Record

		err := dec.Decode(&record)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			parseErrors = append(parseErrors, domain.ParseError{Row: errorRow(reader, err), Err: err})
			continue
		}

		records = append(records, record)
	}

	return records, parseErrors
}

// errorRow resolves the physical input line of the row that failed. The
// reader skips blank lines, so counting Decode calls would drift; a field
// conversion failure happens after the reader consumed the row, so its
// position is the row's position.
func errorRow(reader *csv.Reader, err error) int {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Line
	}

	line, _ := reader.FieldPos(0)

	return line
}

// Encode serializes records back to delimited text: header plus one row per
// record, timestamps rendered in the same fixed format Decode accepts. An
// empty collection produces empty output.
func Encode(records []domain.Record) ([]byte, error) {
	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(writer)

	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return nil, fmt.Errorf("failed to encode record %d: %w", record.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush encoded records: %w", err)
	}

	return buf.Bytes(), nil
}

func normalizeHeader(header []string) []string {
	normalized := make([]string, len(header))

	for i, column := range header {
		if strings.EqualFold(column, "id") {
			column = "id"
		}

		normalized[i] = column
	}

	return normalized
}
