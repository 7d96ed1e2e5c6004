package mailfile_test

import (
	"testing"

	"github.com/ksemenov/inbox_validator/internal/domain"
	"github.com/ksemenov/inbox_validator/internal/mailer"
	"github.com/ksemenov/inbox_validator/internal/mailfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAttachment_HappyPath(t *testing.T) {
	t.Parallel()

	payload := []byte("id,start_date,end_date\n1,2020-08-23 09:00:00,2020-08-23 17:00:00\n")

	raw, err := mailer.NewComposer().Build(domain.Message{
		From:      "Sender <sender@example.com>",
		To:        "Recipient <recipient@example.com>",
		Subject:   "file update",
		PlainBody: "see attached",
		Attachment: &domain.Attachment{
			Name:        "data.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        payload,
		},
	})
	require.NoError(t, err)

	attachment, err := mailfile.NewDecoder().ExtractAttachment(raw)
	require.NoError(t, err)

	assert.Equal(t, "data.csv", attachment.Name)
	assert.Equal(t, "text/csv", attachment.ContentType)
	assert.Equal(t, payload, attachment.Data)
}

func TestExtractAttachment_NoAttachment(t *testing.T) {
	t.Parallel()

	raw, err := mailer.NewComposer().Build(domain.Message{
		From:      "Sender <sender@example.com>",
		To:        "Recipient <recipient@example.com>",
		Subject:   "just text",
		PlainBody: "no file here",
	})
	require.NoError(t, err)

	_, err = mailfile.NewDecoder().ExtractAttachment(raw)
	require.ErrorIs(t, err, domain.ErrNoAttachment)
}

func TestExtractAttachment_MultiplePartsPicksAttachment(t *testing.T) {
	t.Parallel()

	payload := []byte("plaintext")

	raw, err := mailer.NewComposer().Build(domain.Message{
		From:      "Sender <sender@example.com>",
		To:        "Recipient <recipient@example.com>",
		Subject:   "testmail",
		PlainBody: "Email text",
		HTMLBody:  "<p><b>Email</b> text!</p>",
		Attachment: &domain.Attachment{
			Name:        "attachedfile.txt",
			ContentType: "text/plain; charset=utf-8",
			Data:        payload,
		},
	})
	require.NoError(t, err)

	attachment, err := mailfile.NewDecoder().ExtractAttachment(raw)
	require.NoError(t, err)

	assert.Equal(t, "attachedfile.txt", attachment.Name)
	assert.Equal(t, payload, attachment.Data)
}
