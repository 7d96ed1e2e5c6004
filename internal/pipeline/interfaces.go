package pipeline

import (
	"context"

	"github.com/ksemenov/inbox_validator/internal/domain"
)

type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
}

type MailSender interface {
	SendRaw(ctx context.Context, raw []byte) (string, error)
}

type AttachmentExtractor interface {
	ExtractAttachment(raw []byte) (*domain.Attachment, error)
}

type MessageRenderer interface {
	Build(msg domain.Message) ([]byte, error)
}
