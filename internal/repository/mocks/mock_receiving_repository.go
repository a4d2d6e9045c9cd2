package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"receivingapi/internal/model"
	"receivingapi/internal/repository"
)

type MockReceivingRepository struct {
	mock.Mock
}

// Locked invokes fn with the same ctx when the expectation returns no error,
// mirroring the lock-then-run contract without a real transaction.
func (m *MockReceivingRepository) Locked(ctx context.Context, documentID string, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, documentID, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

func (m *MockReceivingRepository) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

func (m *MockReceivingRepository) CreateDocument(ctx context.Context, doc *model.ReceivingDocument) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.ReceivingDocument) *model.ReceivingDocument); ok {
		return f(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingRepository) GetDocument(ctx context.Context, id string) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingRepository) FindByNumber(ctx context.Context, documentNumber string) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, documentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingRepository) UpdateDocument(ctx context.Context, doc *model.ReceivingDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockReceivingRepository) DeleteDocument(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReceivingRepository) ListDocuments(ctx context.Context, q repository.DocumentQuery) (*repository.PageResult[model.ReceivingDocument], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ReceivingDocument]), args.Error(1)
}

func (m *MockReceivingRepository) CreateItem(ctx context.Context, item *model.ReceivingItem) (*model.ReceivingItem, error) {
	args := m.Called(ctx, item)
	if f, ok := args.Get(0).(func(context.Context, *model.ReceivingItem) *model.ReceivingItem); ok {
		return f(ctx, item), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingItem), args.Error(1)
}

func (m *MockReceivingRepository) GetItem(ctx context.Context, id string) (*model.ReceivingItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingItem), args.Error(1)
}

func (m *MockReceivingRepository) FindItem(ctx context.Context, documentID, catalogItemID string) (*model.ReceivingItem, error) {
	args := m.Called(ctx, documentID, catalogItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingItem), args.Error(1)
}

func (m *MockReceivingRepository) UpdateItem(ctx context.Context, item *model.ReceivingItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockReceivingRepository) DeleteItem(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReceivingRepository) ListItems(ctx context.Context, documentID string) ([]model.ReceivingItem, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceivingItem), args.Error(1)
}

func (m *MockReceivingRepository) CreatePhoto(ctx context.Context, photo *model.ReceivingPhoto) (*model.ReceivingPhoto, error) {
	args := m.Called(ctx, photo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingPhoto), args.Error(1)
}

func (m *MockReceivingRepository) ListPhotos(ctx context.Context, documentID string) ([]model.ReceivingPhoto, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceivingPhoto), args.Error(1)
}

func (m *MockReceivingRepository) CountByStatus(ctx context.Context) (map[model.DocumentStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.DocumentStatus]int), args.Error(1)
}

func (m *MockReceivingRepository) AvgCompletionSeconds(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockReceivingRepository) OpenCountByAssignee(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockReceivingRepository) CreatedSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *MockReceivingRepository) CompletedSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *MockReceivingRepository) ItemsReceivedSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}
