// Package validate applies domain rules to decoded records.
package validate

import "github.com/ksemenov/inbox_validator/internal/domain"

const ruleStartBeforeEnd = "start date after end date"

// Records returns one ValidationError per record whose start date is after
// its end date. The result keeps input order. Records that satisfy the rule
// contribute nothing.
func Records(records []domain.Record) []domain.ValidationError {
	var validationErrors []domain.ValidationError

	for _, record := range records {
		if record.StartDate.After(record.EndDate.Time) {
			validationErrors = append(validationErrors, domain.ValidationError{
				Record: record,
				Rule:   ruleStartBeforeEnd,
			})
		}
	}

	return validationErrors
}
