package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSender submits fully-formed raw messages through Amazon SES.
type SESSender struct {
	client *sesv2.Client
}

func NewSESSender(cfg aws.Config) *SESSender {
	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
	}
}

// SendRaw submits raw as-is. Envelope sender and recipient are taken from the
// message headers. Returns the provider delivery id.
func (s *SESSender) SendRaw(ctx context.Context, raw []byte) (string, error) {
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send raw email: %w", err)
	}

	return aws.ToString(out.MessageId), nil
}
