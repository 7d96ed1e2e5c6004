package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ksemenov/inbox_validator/internal/config"
	"github.com/ksemenov/inbox_validator/internal/domain"
	"github.com/ksemenov/inbox_validator/internal/pipeline"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	cleanCSV = "id,start_date,end_date\n" +
		"1,2020-08-23 09:00:00,2020-08-23 17:00:00\n"

	// One validation error (start after end) and one parse error (bogus id).
	brokenCSV = "id,start_date,end_date\n" +
		"2,2020-08-23 09:00:00,2020-08-23 08:00:00\n" +
		"bogus,2020-08-23 09:00:00,2020-08-23 17:00:00\n"
)

type fixture struct {
	store     *MockObjectStore
	sender    *MockMailSender
	extractor *MockAttachmentExtractor
	renderer  *MockMessageRenderer
	dsp       *pipeline.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     &MockObjectStore{},
		sender:    &MockMailSender{},
		extractor: &MockAttachmentExtractor{},
		renderer:  &MockMessageRenderer{},
	}

	f.dsp = pipeline.NewDispatcher(
		slog.New(slog.DiscardHandler),
		config.Mail{
			Recipient: "Owner <owner@example.com>",
			Sender:    "Reporter <reporter@example.com>",
		},
		config.Canonical{
			Bucket: "output-bucket",
			Key:    "current.csv",
		},
		f.store,
		f.sender,
		f.extractor,
		f.renderer,
	)

	t.Cleanup(func() {
		f.store.AssertExpectations(t)
		f.sender.AssertExpectations(t)
		f.extractor.AssertExpectations(t)
		f.renderer.AssertExpectations(t)
	})

	return f
}

func TestHandle_TimerTrigger_CanonicalPresent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.store.On("Get", mock.Anything, "output-bucket", "current.csv").
		Return([]byte(cleanCSV), nil)

	f.renderer.On("Build", mock.MatchedBy(func(msg domain.Message) bool {
		return msg.Subject == "Please verify and update attached file" &&
			msg.To == "Owner <owner@example.com>" &&
			msg.Attachment != nil &&
			msg.Attachment.Name == "current.csv" &&
			bytes.Equal(msg.Attachment.Data, []byte(cleanCSV))
	})).Return([]byte("rendered"), nil)

	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).Return("delivery-1", nil)

	require.NoError(t, f.dsp.Handle(context.Background(), domain.TimerTrigger{}))
}

func TestHandle_TimerTrigger_CanonicalAbsent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.store.On("Get", mock.Anything, "output-bucket", "current.csv").
		Return(nil, domain.ErrObjectNotFound)

	f.renderer.On("Build", mock.MatchedBy(func(msg domain.Message) bool {
		return msg.Subject == "Please reply with file" && msg.Attachment == nil
	})).Return([]byte("rendered"), nil)

	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).Return("delivery-1", nil)

	require.NoError(t, f.dsp.Handle(context.Background(), domain.TimerTrigger{}))
}

func TestHandle_TimerTrigger_TransportErrorDegradesToReminder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.store.On("Get", mock.Anything, "output-bucket", "current.csv").
		Return(nil, errors.New("connection reset"))

	f.renderer.On("Build", mock.MatchedBy(func(msg domain.Message) bool {
		return msg.Subject == "Please reply with file" && msg.Attachment == nil
	})).Return([]byte("rendered"), nil)

	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).Return("delivery-1", nil)

	require.NoError(t, f.dsp.Handle(context.Background(), domain.TimerTrigger{}))
}

func TestHandle_TimerTrigger_SendFailureSwallowed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.store.On("Get", mock.Anything, "output-bucket", "current.csv").
		Return(nil, domain.ErrObjectNotFound)

	f.renderer.On("Build", mock.Anything).Return([]byte("rendered"), nil)
	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).
		Return("", errors.New("ses unavailable"))

	require.NoError(t, f.dsp.Handle(context.Background(), domain.TimerTrigger{}))
}

func TestHandle_StorageNotification_CleanBatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// Keys arrive percent-encoded and must be decoded before use.
	ev := domain.StorageNotification{Bucket: "inbound-mail", ObjectKey: "inbox/My%20Mail"}

	f.store.On("Get", mock.Anything, "inbound-mail", "inbox/My Mail").
		Return([]byte("raw mail bytes"), nil)

	f.extractor.On("ExtractAttachment", []byte("raw mail bytes")).
		Return(&domain.Attachment{
			Name:        "data.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        []byte(cleanCSV),
		}, nil)

	f.store.On("Put", mock.Anything, "output-bucket", "current.csv", []byte(cleanCSV)).
		Return(nil)

	f.renderer.On("Build", mock.MatchedBy(func(msg domain.Message) bool {
		return msg.Subject == "File updated successfully!" &&
			msg.Attachment != nil &&
			msg.Attachment.Name == "data.csv" &&
			bytes.Equal(msg.Attachment.Data, []byte(cleanCSV))
	})).Return([]byte("rendered"), nil)

	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).Return("delivery-1", nil)

	require.NoError(t, f.dsp.Handle(context.Background(), ev))
}

func TestHandle_StorageNotification_ErrorsReported(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ev := domain.StorageNotification{Bucket: "inbound-mail", ObjectKey: "inbox/mail"}

	f.store.On("Get", mock.Anything, "inbound-mail", "inbox/mail").
		Return([]byte("raw mail bytes"), nil)

	original := []byte(brokenCSV)
	f.extractor.On("ExtractAttachment", []byte("raw mail bytes")).
		Return(&domain.Attachment{
			Name:        "data.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        original,
		}, nil)

	f.renderer.On("Build", mock.MatchedBy(func(msg domain.Message) bool {
		return msg.Subject == "Errors in file: data.csv" &&
			strings.Contains(msg.PlainBody, "Parse errors:") &&
			strings.Contains(msg.PlainBody, "row 3") &&
			strings.Contains(msg.PlainBody, "Validation errors:") &&
			strings.Contains(msg.PlainBody, "record 2") &&
			msg.Attachment != nil &&
			bytes.Equal(msg.Attachment.Data, original)
	})).Return([]byte("rendered"), nil)

	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).Return("delivery-1", nil)

	require.NoError(t, f.dsp.Handle(context.Background(), ev))

	// Data-quality problems never touch the canonical file.
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_StorageNotification_NoAttachment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ev := domain.StorageNotification{Bucket: "inbound-mail", ObjectKey: "inbox/mail"}

	f.store.On("Get", mock.Anything, "inbound-mail", "inbox/mail").
		Return([]byte("raw mail bytes"), nil)

	f.extractor.On("ExtractAttachment", []byte("raw mail bytes")).
		Return(nil, domain.ErrNoAttachment)

	f.renderer.On("Build", mock.MatchedBy(func(msg domain.Message) bool {
		return msg.Subject == "No attachment found" && msg.Attachment == nil
	})).Return([]byte("rendered"), nil)

	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).Return("delivery-1", nil)

	err := f.dsp.Handle(context.Background(), ev)
	require.ErrorIs(t, err, domain.ErrNoAttachment)
}

func TestHandle_StorageNotification_FetchErrorIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ev := domain.StorageNotification{Bucket: "inbound-mail", ObjectKey: "inbox/mail"}

	f.store.On("Get", mock.Anything, "inbound-mail", "inbox/mail").
		Return(nil, errors.New("access denied"))

	require.Error(t, f.dsp.Handle(context.Background(), ev))

	f.sender.AssertNotCalled(t, "SendRaw", mock.Anything, mock.Anything)
}

func TestHandle_StorageNotification_WriteFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ev := domain.StorageNotification{Bucket: "inbound-mail", ObjectKey: "inbox/mail"}

	f.store.On("Get", mock.Anything, "inbound-mail", "inbox/mail").
		Return([]byte("raw mail bytes"), nil)

	f.extractor.On("ExtractAttachment", []byte("raw mail bytes")).
		Return(&domain.Attachment{
			Name:        "data.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        []byte(cleanCSV),
		}, nil)

	f.store.On("Put", mock.Anything, "output-bucket", "current.csv", []byte(cleanCSV)).
		Return(errors.New("write failed"))

	require.Error(t, f.dsp.Handle(context.Background(), ev))

	f.sender.AssertNotCalled(t, "SendRaw", mock.Anything, mock.Anything)
}

func TestHandle_StorageNotification_ConfirmationSendFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ev := domain.StorageNotification{Bucket: "inbound-mail", ObjectKey: "inbox/mail"}

	f.store.On("Get", mock.Anything, "inbound-mail", "inbox/mail").
		Return([]byte("raw mail bytes"), nil)

	f.extractor.On("ExtractAttachment", []byte("raw mail bytes")).
		Return(&domain.Attachment{
			Name:        "data.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        []byte(cleanCSV),
		}, nil)

	f.store.On("Put", mock.Anything, "output-bucket", "current.csv", []byte(cleanCSV)).
		Return(nil)

	f.renderer.On("Build", mock.Anything).Return([]byte("rendered"), nil)
	f.sender.On("SendRaw", mock.Anything, []byte("rendered")).
		Return("", errors.New("ses unavailable"))

	require.Error(t, f.dsp.Handle(context.Background(), ev))
}

func TestHandle_StorageNotification_BadKeyEncoding(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ev := domain.StorageNotification{Bucket: "inbound-mail", ObjectKey: "inbox/%zz"}

	require.Error(t, f.dsp.Handle(context.Background(), ev))

	f.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}
