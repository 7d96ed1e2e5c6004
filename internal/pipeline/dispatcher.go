// Package pipeline drives one invocation of the validation-and-notification
// workflow: fetch, extract, decode, validate, then notify or update.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ksemenov/inbox_validator/internal/codec"
	"github.com/ksemenov/inbox_validator/internal/config"
	"github.com/ksemenov/inbox_validator/internal/domain"
	"github.com/ksemenov/inbox_validator/internal/validate"
)

const csvContentType = "text/csv; charset=utf-8"

type Dispatcher struct {
	log       *slog.Logger
	mail      config.Mail
	canonical config.Canonical
	store     ObjectStore
	sender    MailSender
	extractor AttachmentExtractor
	renderer  MessageRenderer
}

func NewDispatcher(
	log *slog.Logger,
	mail config.Mail,
	canonical config.Canonical,
	store ObjectStore,
	sender MailSender,
	extractor AttachmentExtractor,
	renderer MessageRenderer,
) *Dispatcher {
	return &Dispatcher{
		log:       log,
		mail:      mail,
		canonical: canonical,
		store:     store,
		sender:    sender,
		extractor: extractor,
		renderer:  renderer,
	}
}

// Handle processes exactly one event variant start-to-finish. No internal
// retries, no state kept across invocations.
func (d *Dispatcher) Handle(ctx context.Context, ev domain.Event) error {
	switch ev := ev.(type) {
	case domain.StorageNotification:
		return d.handleStorageNotification(ctx, ev)
	case domain.TimerTrigger:
		return d.handleTimerTrigger(ctx)
	default:
		return fmt.Errorf("unsupported event variant %T", ev)
	}
}

// handleTimerTrigger sends a best-effort reminder: with the canonical file
// attached when it exists, a bare "please reply" otherwise. Nothing on this
// path is fatal to the invocation.
func (d *Dispatcher) handleTimerTrigger(ctx context.Context) error {
	file, err := d.store.Get(ctx, d.canonical.Bucket, d.canonical.Key)
	if err != nil {
		if !errors.Is(err, domain.ErrObjectNotFound) {
			d.log.WarnContext(ctx, "failed to fetch canonical file, treating as absent",
				slog.String("err", err.Error()))
		}

		d.sendBestEffort(ctx, domain.Message{
			From:      d.mail.Sender,
			To:        d.mail.Recipient,
			Subject:   "Please reply with file",
			PlainBody: "Please reply with file",
		})

		return nil
	}

	d.sendBestEffort(ctx, domain.Message{
		From:      d.mail.Sender,
		To:        d.mail.Recipient,
		Subject:   "Please verify and update attached file",
		PlainBody: "Please verify and update the attached file",
		Attachment: &domain.Attachment{
			Name:        d.canonical.Key,
			ContentType: csvContentType,
			Data:        file,
		},
	})

	return nil
}

func (d *Dispatcher) handleStorageNotification(ctx context.Context, ev domain.StorageNotification) error {
	bucket, err := url.PathUnescape(ev.Bucket)
	if err != nil {
		return fmt.Errorf("failed to decode bucket %q: %w", ev.Bucket, err)
	}

	key, err := url.PathUnescape(ev.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to decode object key %q: %w", ev.ObjectKey, err)
	}

	log := d.log.With(slog.String("bucket", bucket), slog.String("key", key))
	log.InfoContext(ctx, "processing received mail")

	raw, err := d.store.Get(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("failed to fetch received mail: %w", err)
	}

	attachment, err := d.extractor.ExtractAttachment(raw)
	if err != nil {
		if errors.Is(err, domain.ErrNoAttachment) {
			d.sendBestEffort(ctx, domain.Message{
				From:      d.mail.Sender,
				To:        d.mail.Recipient,
				Subject:   "No attachment found",
				PlainBody: "The received mail carries no attachment.\nPlease reply with the file attached.",
			})
		}

		return fmt.Errorf("failed to extract attachment: %w", err)
	}

	log.InfoContext(ctx, "attachment extracted", slog.String("filename", attachment.Name))

	records, parseErrors := codec.Decode(string(attachment.Data))
	validationErrors := validate.Records(records)

	if len(parseErrors) > 0 || len(validationErrors) > 0 {
		return d.reportErrors(ctx, log, attachment, parseErrors, validationErrors)
	}

	return d.updateCanonical(ctx, log, attachment.Name, records)
}

// reportErrors mails every accumulated problem in one report with the
// original attachment re-attached unchanged. The canonical file stays
// untouched; a delivered report counts as a successful invocation.
func (d *Dispatcher) reportErrors(
	ctx context.Context,
	log *slog.Logger,
	attachment *domain.Attachment,
	parseErrors []domain.ParseError,
	validationErrors []domain.ValidationError,
) error {
	var body strings.Builder
	body.WriteString("Errors found in attached file:\n")

	if len(parseErrors) > 0 {
		body.WriteString("Parse errors:\n")
		for _, parseError := range parseErrors {
			body.WriteString(parseError.Error())
			body.WriteByte('\n')
		}
	}

	if len(validationErrors) > 0 {
		body.WriteString("Validation errors:\n")
		for _, validationError := range validationErrors {
			body.WriteString(validationError.Error())
			body.WriteByte('\n')
		}
	}

	raw, err := d.renderer.Build(domain.Message{
		From:       d.mail.Sender,
		To:         d.mail.Recipient,
		Subject:    fmt.Sprintf("Errors in file: %s", attachment.Name),
		PlainBody:  body.String(),
		Attachment: attachment,
	})
	if err != nil {
		return fmt.Errorf("failed to build error report: %w", err)
	}

	deliveryID, err := d.sender.SendRaw(ctx, raw)
	if err != nil {
		return fmt.Errorf("failed to send error report: %w", err)
	}

	log.WarnContext(ctx, "errors found in attached file, report sent",
		slog.Int("parse_errors", len(parseErrors)),
		slog.Int("validation_errors", len(validationErrors)),
		slog.String("delivery_id", deliveryID),
	)

	return nil
}

// updateCanonical overwrites the canonical file with the re-encoded records
// and confirms by mail. Failures after this point are surfaced: the user
// must not believe an update succeeded when it did not.
func (d *Dispatcher) updateCanonical(ctx context.Context, log *slog.Logger, filename string, records []domain.Record) error {
	encoded, err := codec.Encode(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := d.store.Put(ctx, d.canonical.Bucket, d.canonical.Key, encoded); err != nil {
		return fmt.Errorf("failed to update canonical file: %w", err)
	}

	raw, err := d.renderer.Build(domain.Message{
		From:      d.mail.Sender,
		To:        d.mail.Recipient,
		Subject:   "File updated successfully!",
		PlainBody: "File updated successfully!\nAttached for reference.",
		Attachment: &domain.Attachment{
			Name:        filename,
			ContentType: csvContentType,
			Data:        encoded,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build confirmation: %w", err)
	}

	deliveryID, err := d.sender.SendRaw(ctx, raw)
	if err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}

	log.InfoContext(ctx, "canonical file updated",
		slog.Int("records", len(records)),
		slog.String("delivery_id", deliveryID),
	)

	return nil
}

// sendBestEffort renders and sends msg, logging failures instead of
// propagating them.
func (d *Dispatcher) sendBestEffort(ctx context.Context, msg domain.Message) {
	raw, err := d.renderer.Build(msg)
	if err != nil {
		d.log.ErrorContext(ctx, "failed to build message",
			slog.String("subject", msg.Subject),
			slog.String("err", err.Error()))
		return
	}

	deliveryID, err := d.sender.SendRaw(ctx, raw)
	if err != nil {
		d.log.ErrorContext(ctx, "failed to send message",
			slog.String("subject", msg.Subject),
			slog.String("err", err.Error()))
		return
	}

	d.log.InfoContext(ctx, "message sent",
		slog.String("subject", msg.Subject),
		slog.String("delivery_id", deliveryID),
	)
}
