package domain

import "time"

// TimeLayout is the only accepted timestamp format in tabular files.
const TimeLayout = "2006-01-02 15:04:05"

type Record struct {
	ID        uint32   `csv:"id"         json:"id"`
	StartDate DateTime `csv:"start_date" json:"start_date"`
	EndDate   DateTime `csv:"end_date"   json:"end_date"`
}

// DateTime wraps time.Time to pin decoding and encoding to TimeLayout.
type DateTime struct {
	time.Time
}

func NewDateTime(value string) (DateTime, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return DateTime{}, err
	}

	return DateTime{Time: t}, nil
}

func (d *DateTime) UnmarshalText(data []byte) error {
	t, err := time.Parse(TimeLayout, string(data))
	if err != nil {
		return err
	}

	d.Time = t

	return nil
}

func (d DateTime) MarshalText() ([]byte, error) {
	return []byte(d.Time.Format(TimeLayout)), nil
}

func (d DateTime) String() string {
	return d.Time.Format(TimeLayout)
}
