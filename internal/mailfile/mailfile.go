// Package mailfile extracts the tabular attachment from a raw received mail.
package mailfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jhillyerd/enmime"
	"github.com/ksemenov/inbox_validator/internal/domain"
)

type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// ExtractAttachment parses raw as a MIME mail and returns the first part
// disposed as an attachment. Returns domain.ErrNoAttachment when the mail
// carries none.
func (d *Decoder) ExtractAttachment(raw []byte) (*domain.Attachment, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail: %w", err)
	}

	if len(env.Attachments) == 0 {
		return nil, domain.ErrNoAttachment
	}

	part := env.Attachments[0]
	if part.FileName == "" {
		return nil, errors.New("attachment part has no filename")
	}

	return &domain.Attachment{
		Name:        part.FileName,
		ContentType: part.ContentType,
		Data:        part.Content,
	}, nil
}
