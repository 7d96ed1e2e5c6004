// Package mailer renders notifications into transport-ready raw messages and
// submits them to the mail transmission service.
package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"

	"github.com/google/uuid"
	"github.com/ksemenov/inbox_validator/internal/domain"
)

const base64LineLength = 76

// Composer builds multi-part messages: a plain-text part, an optional HTML
// alternative and an optional single attachment, each independently
// transfer-encoded. Attachment filenames are carried as raw bytes, so
// non-ASCII names must be sanitized by the caller.
type Composer struct {
	boundary func() string
}

type ComposerOption func(*Composer)

// WithBoundaryFunc overrides MIME boundary generation, which makes rendered
// output deterministic under test.
func WithBoundaryFunc(fn func() string) ComposerOption {
	return func(c *Composer) {
		c.boundary = fn
	}
}

func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{
		boundary: uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Build renders msg to a single self-contained byte sequence suitable for
// direct raw submission. Malformed sender or recipient addresses are a fatal
// construction error; all other inputs cannot fail composition.
func (c *Composer) Build(msg domain.Message) ([]byte, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", msg.From, err)
	}

	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}

	var buf bytes.Buffer

	mixed := multipart.NewWriter(&buf)
	if err := mixed.SetBoundary(c.boundary()); err != nil {
		return nil, fmt.Errorf("failed to set boundary: %w", err)
	}

	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", to.String())
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mixed.Boundary()))
	buf.WriteString("\r\n")

	if msg.HTMLBody != "" {
		if err := c.writeAlternative(mixed, msg); err != nil {
			return nil, err
		}
	} else {
		if err := writePlainPart(mixed, msg.PlainBody); err != nil {
			return nil, err
		}
	}

	if msg.Attachment != nil {
		if err := writeAttachmentPart(mixed, *msg.Attachment); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message body: %w", err)
	}

	return buf.Bytes(), nil
}

func (c *Composer) writeAlternative(mixed *multipart.Writer, msg domain.Message) error {
	boundary := c.boundary()

	part, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", boundary)},
	})
	if err != nil {
		return fmt.Errorf("failed to create alternative container: %w", err)
	}

	alt := multipart.NewWriter(part)
	if err := alt.SetBoundary(boundary); err != nil {
		return fmt.Errorf("failed to set alternative boundary: %w", err)
	}

	if err := writePlainPart(alt, msg.PlainBody); err != nil {
		return err
	}

	if err := writeHTMLPart(alt, msg.HTMLBody); err != nil {
		return err
	}

	if err := alt.Close(); err != nil {
		return fmt.Errorf("failed to close alternative container: %w", err)
	}

	return nil
}

func writePlainPart(w *multipart.Writer, body string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return fmt.Errorf("failed to create plain part: %w", err)
	}

	qp := quotedprintable.NewWriter(part)
	if _, err := io.WriteString(qp, body); err != nil {
		return fmt.Errorf("failed to write plain body: %w", err)
	}

	if err := qp.Close(); err != nil {
		return fmt.Errorf("failed to flush plain body: %w", err)
	}

	return nil
}

func writeHTMLPart(w *multipart.Writer, body string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return fmt.Errorf("failed to create html part: %w", err)
	}

	if _, err := io.WriteString(part, body); err != nil {
		return fmt.Errorf("failed to write html body: %w", err)
	}

	return nil
}

func writeAttachmentPart(w *multipart.Writer, attachment domain.Attachment) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {attachment.ContentType},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", attachment.Name)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(attachment.Data)
	for len(encoded) > 0 {
		n := min(base64LineLength, len(encoded))

		if _, err := io.WriteString(part, encoded[:n]+"\r\n"); err != nil {
			return fmt.Errorf("failed to write attachment body: %w", err)
		}

		encoded = encoded[n:]
	}

	return nil
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	fmt.Fprintf(buf, "%s: %s\r\n", name, value)
}
