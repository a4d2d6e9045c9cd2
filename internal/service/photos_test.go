package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"receivingapi/internal/apperr"
	"receivingapi/internal/config"
	"receivingapi/internal/model"
	repoMocks "receivingapi/internal/repository/mocks"
	"receivingapi/internal/storage"
	storeMocks "receivingapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPhotoTestService(store *storeMocks.MockStorage, repo *repoMocks.MockReceivingRepository, cfg config.ReceivingConfig) *photoService {
	return &photoService{
		store: store,
		repo:  repo,
		cfg:   cfg,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   func() time.Time { return testTime },
	}
}

func TestPhotoService_EnsureCanUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("logistika is never allowed", func(t *testing.T) {
		svc := newPhotoTestService(new(storeMocks.MockStorage), new(repoMocks.MockReceivingRepository), config.ReceivingConfig{})

		err := svc.EnsureCanUpload(ctx, model.Actor{ID: "u1", Role: model.RoleLogistika}, "doc-1")

		assert.True(t, apperr.IsForbidden(err))
	})

	t.Run("supervisors skip the assignment check", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(new(storeMocks.MockStorage), mRepo, config.ReceivingConfig{})

		err := svc.EnsureCanUpload(ctx, model.Actor{ID: "boss", Role: model.RoleSef}, "doc-1")

		require.NoError(t, err)
		mRepo.AssertNotCalled(t, "GetDocument", mock.Anything, mock.Anything)
	})

	t.Run("magacioner must be the assignee", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(new(storeMocks.MockStorage), mRepo, config.ReceivingConfig{})

		mRepo.On("GetDocument", ctx, "doc-1").Return(&model.ReceivingDocument{
			ID: "doc-1", Status: model.StatusInProgress, AssignedTo: strptr("other"),
		}, nil)

		err := svc.EnsureCanUpload(ctx, model.Actor{ID: "worker-1", Role: model.RoleMagacioner}, "doc-1")

		assert.True(t, apperr.IsForbidden(err))
	})

	t.Run("magacioner allowed while assigned and open", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(new(storeMocks.MockStorage), mRepo, config.ReceivingConfig{})

		mRepo.On("GetDocument", ctx, "doc-1").Return(&model.ReceivingDocument{
			ID: "doc-1", Status: model.StatusInProgress, AssignedTo: strptr("worker-1"),
		}, nil)

		err := svc.EnsureCanUpload(ctx, model.Actor{ID: "worker-1", Role: model.RoleMagacioner}, "doc-1")

		assert.NoError(t, err)
	})

	t.Run("permission is revoked by completion", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(new(storeMocks.MockStorage), mRepo, config.ReceivingConfig{})

		// Same worker, same document: the gate re-reads state on every call.
		mRepo.On("GetDocument", ctx, "doc-1").Return(&model.ReceivingDocument{
			ID: "doc-1", Status: model.StatusCompleted, AssignedTo: strptr("worker-1"),
		}, nil)

		err := svc.EnsureCanUpload(ctx, model.Actor{ID: "worker-1", Role: model.RoleMagacioner}, "doc-1")

		assert.True(t, apperr.IsForbidden(err))
	})
}

func TestPhotoService_Upload(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{ID: "boss", Role: model.RoleSef}

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(mStore, mRepo, config.ReceivingConfig{})

		r := strings.NewReader("jpegdata")
		mRepo.On("GetDocument", ctx, "doc-1").
			Return(&model.ReceivingDocument{ID: "doc-1", Status: model.StatusInProgress}, nil)
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "receivings/doc-1/") && strings.HasSuffix(key, ".jpg")
		}), r, storage.PutObjectOptions{
			Size:        8,
			ContentType: "image/jpeg",
			Metadata:    map[string]string{"original-filename": "pallet.jpg", "uploaded-by": "boss"},
		}).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
			return storage.ObjectInfo{Key: key}
		}, nil)
		mRepo.On("CreatePhoto", ctx, mock.MatchedBy(func(p *model.ReceivingPhoto) bool {
			return p.DocumentID == "doc-1" && p.UploadedBy == "boss" && p.PhotoURL != ""
		})).Return(&model.ReceivingPhoto{ID: "photo-1", DocumentID: "doc-1"}, nil)

		photo, err := svc.Upload(ctx, actor, UploadPhotoInput{
			DocumentID:       "doc-1",
			OriginalFilename: "pallet.jpg",
			ContentType:      "image/jpeg",
			Size:             8,
		}, r)

		require.NoError(t, err)
		assert.Equal(t, "photo-1", photo.ID)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("item must belong to the document", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(mStore, mRepo, config.ReceivingConfig{})

		mRepo.On("GetDocument", ctx, "doc-1").
			Return(&model.ReceivingDocument{ID: "doc-1", Status: model.StatusInProgress}, nil)
		mRepo.On("GetItem", ctx, "line-9").
			Return(&model.ReceivingItem{ID: "line-9", DocumentID: "other-doc"}, nil)

		_, err := svc.Upload(ctx, actor, UploadPhotoInput{
			DocumentID:       "doc-1",
			ItemID:           strptr("line-9"),
			OriginalFilename: "x.jpg",
		}, strings.NewReader("x"))

		assert.True(t, apperr.IsValidation(err))
		mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("db failure rolls back the stored object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(mStore, mRepo, config.ReceivingConfig{})

		r := strings.NewReader("x")
		mRepo.On("GetDocument", ctx, "doc-1").
			Return(&model.ReceivingDocument{ID: "doc-1", Status: model.StatusInProgress}, nil)
		mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key}
			}, nil)
		mRepo.On("CreatePhoto", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := svc.Upload(ctx, actor, UploadPhotoInput{DocumentID: "doc-1", OriginalFilename: "x.jpg"}, r)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db save failed")
		mStore.AssertExpectations(t)
	})

	t.Run("missing document", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(new(storeMocks.MockStorage), mRepo, config.ReceivingConfig{})

		mRepo.On("GetDocument", ctx, "gone").Return(nil, sql.ErrNoRows)

		_, err := svc.Upload(ctx, actor, UploadPhotoInput{DocumentID: "gone", OriginalFilename: "x.jpg"}, strings.NewReader("x"))

		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestPhotoService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("presigns each photo", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockReceivingRepository)
		svc := newPhotoTestService(mStore, mRepo, config.ReceivingConfig{PhotoURLExpirySec: 900})

		mRepo.On("GetDocument", ctx, "doc-1").
			Return(&model.ReceivingDocument{ID: "doc-1"}, nil)
		mRepo.On("ListPhotos", ctx, "doc-1").Return([]model.ReceivingPhoto{
			{ID: "p1", PhotoURL: "receivings/doc-1/a.jpg"},
			{ID: "p2", PhotoURL: "receivings/doc-1/b.jpg"},
		}, nil)
		mStore.On("PresignGet", ctx, "receivings/doc-1/a.jpg", 900*time.Second).
			Return("https://minio/a.jpg?sig", nil)
		mStore.On("PresignGet", ctx, "receivings/doc-1/b.jpg", 900*time.Second).
			Return("", errors.New("object missing"))

		views, err := svc.List(ctx, "doc-1")

		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "https://minio/a.jpg?sig", views[0].DownloadURL)
		// Presign failure degrades to an empty URL instead of failing the list.
		assert.Empty(t, views[1].DownloadURL)
	})
}
