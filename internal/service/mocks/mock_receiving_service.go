package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"receivingapi/internal/model"
	"receivingapi/internal/service"
)

type MockReceivingService struct {
	mock.Mock
}

func (m *MockReceivingService) Create(ctx context.Context, in service.CreateDocumentInput, actor model.Actor) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingService) Get(ctx context.Context, id string) (*service.DocumentWithItems, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentWithItems), args.Error(1)
}

func (m *MockReceivingService) List(ctx context.Context, q service.ListQuery) (*service.DocumentListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockReceivingService) Start(ctx context.Context, documentID, assigneeID string, actor model.Actor) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, documentID, assigneeID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingService) Hold(ctx context.Context, documentID, reason string, actor model.Actor) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, documentID, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingService) Release(ctx context.Context, documentID string, actor model.Actor) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, documentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingService) Reassign(ctx context.Context, documentID, newAssigneeID string, actor model.Actor) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, documentID, newAssigneeID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingService) Complete(ctx context.Context, documentID string, actor model.Actor) (*model.ReceivingDocument, error) {
	args := m.Called(ctx, documentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingDocument), args.Error(1)
}

func (m *MockReceivingService) Delete(ctx context.Context, documentID string, actor model.Actor) error {
	args := m.Called(ctx, documentID, actor)
	return args.Error(0)
}

func (m *MockReceivingService) DeleteBulk(ctx context.Context, documentIDs []string, actor model.Actor) (*service.BulkDeleteResult, error) {
	args := m.Called(ctx, documentIDs, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkDeleteResult), args.Error(1)
}

func (m *MockReceivingService) AddItem(ctx context.Context, documentID string, in service.AddItemInput, actor model.Actor) (*model.ReceivingItem, error) {
	args := m.Called(ctx, documentID, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingItem), args.Error(1)
}

func (m *MockReceivingService) UpdateItem(ctx context.Context, itemID string, in service.UpdateItemInput, actor model.Actor) (*model.ReceivingItem, error) {
	args := m.Called(ctx, itemID, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingItem), args.Error(1)
}

func (m *MockReceivingService) DeleteItem(ctx context.Context, itemID string, actor model.Actor) error {
	args := m.Called(ctx, itemID, actor)
	return args.Error(0)
}

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Preview(ctx context.Context, file []byte) (*service.ImportPreview, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportPreview), args.Error(1)
}

func (m *MockImportService) Confirm(ctx context.Context, in service.ConfirmImportInput, actor model.Actor) (*service.DocumentWithItems, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentWithItems), args.Error(1)
}

type MockPhotoService struct {
	mock.Mock
}

func (m *MockPhotoService) EnsureCanUpload(ctx context.Context, actor model.Actor, documentID string) error {
	args := m.Called(ctx, actor, documentID)
	return args.Error(0)
}

func (m *MockPhotoService) Upload(ctx context.Context, actor model.Actor, in service.UploadPhotoInput, r io.Reader) (*model.ReceivingPhoto, error) {
	args := m.Called(ctx, actor, in, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceivingPhoto), args.Error(1)
}

func (m *MockPhotoService) List(ctx context.Context, documentID string) ([]service.PhotoView, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.PhotoView), args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ActiveReceivings(ctx context.Context) (*service.DocumentListResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDashboardService) Snapshot(ctx context.Context) (*service.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Snapshot), args.Error(1)
}

func (m *MockDashboardService) Stats(ctx context.Context) (*service.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Stats), args.Error(1)
}

func (m *MockDashboardService) TodayStats(ctx context.Context) (*service.TodayStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TodayStats), args.Error(1)
}

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) Recommend(ctx context.Context, itemID string, actor model.Actor) (*service.Recommendation, error) {
	args := m.Called(ctx, itemID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Recommendation), args.Error(1)
}
