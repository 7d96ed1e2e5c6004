// Package event normalizes platform trigger payloads into the explicit
// variants the workflow understands. The dispatcher never sees a raw payload.
package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ksemenov/inbox_validator/internal/domain"
)

const (
	s3EventSource        = "aws:s3"
	scheduledEventSource = "aws.events"
)

var ErrUnknownEvent = errors.New("unrecognized event payload")

// Parse inspects payload and returns exactly one Event variant: a
// StorageNotification for an S3 object-created event, a TimerTrigger for a
// scheduled CloudWatch event. Anything else is ErrUnknownEvent. An S3 record
// without a bucket name or object key is rejected here rather than handed to
// the workflow as an empty location.
func Parse(payload []byte) (domain.Event, error) {
	var s3ev events.S3Event
	if err := json.Unmarshal(payload, &s3ev); err == nil && len(s3ev.Records) > 0 {
		if record := s3ev.Records[0]; record.EventSource == s3EventSource {
			if record.S3.Bucket.Name == "" || record.S3.Object.Key == "" {
				return nil, fmt.Errorf("storage event is missing bucket or object key: %w", ErrUnknownEvent)
			}

			return domain.StorageNotification{
				Bucket:    record.S3.Bucket.Name,
				ObjectKey: record.S3.Object.Key,
			}, nil
		}
	}

	var cw events.CloudWatchEvent
	if err := json.Unmarshal(payload, &cw); err == nil && cw.Source == scheduledEventSource {
		return domain.TimerTrigger{}, nil
	}

	return nil, ErrUnknownEvent
}
