package pipeline_test

import (
	"context"

	"github.com/ksemenov/inbox_validator/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(ctx, bucket, key)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	return m.Called(ctx, bucket, key, data).Error(0)
}

type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) SendRaw(ctx context.Context, raw []byte) (string, error) {
	args := m.Called(ctx, raw)

	return args.String(0), args.Error(1)
}

type MockAttachmentExtractor struct {
	mock.Mock
}

func (m *MockAttachmentExtractor) ExtractAttachment(raw []byte) (*domain.Attachment, error) {
	args := m.Called(raw)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Attachment), args.Error(1)
}

type MockMessageRenderer struct {
	mock.Mock
}

func (m *MockMessageRenderer) Build(msg domain.Message) ([]byte, error) {
	args := m.Called(msg)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}
