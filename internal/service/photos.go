package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"receivingapi/internal/apperr"
	"receivingapi/internal/auth"
	"receivingapi/internal/config"
	"receivingapi/internal/model"
	"receivingapi/internal/repository"
	"receivingapi/internal/storage"
)

// UploadPhotoInput carries one photo upload.
type UploadPhotoInput struct {
	DocumentID       string
	ItemID           *string
	Caption          *string
	OriginalFilename string
	ContentType      string
	Size             int64
}

// PhotoView is a stored photo plus a time-limited download URL.
type PhotoView struct {
	model.ReceivingPhoto
	DownloadURL string `json:"download_url"`
}

// PhotoService governs and stores photo evidence on receiving documents.
type PhotoService interface {
	// EnsureCanUpload is the authorization gate, re-evaluated on every call:
	// document status and assignment can change between uploads, so the
	// result is never cached. It has no side effects.
	EnsureCanUpload(ctx context.Context, actor model.Actor, documentID string) error

	Upload(ctx context.Context, actor model.Actor, in UploadPhotoInput, r io.Reader) (*model.ReceivingPhoto, error)
	List(ctx context.Context, documentID string) ([]PhotoView, error)
}

type photoService struct {
	store storage.Storage
	repo  repository.ReceivingRepository
	cfg   config.ReceivingConfig
	log   *slog.Logger
	now   func() time.Time
}

// NewPhotoService constructs the photo governor and uploader.
func NewPhotoService(store storage.Storage, repo repository.ReceivingRepository, cfg config.ReceivingConfig, log *slog.Logger) PhotoService {
	return &photoService{
		store: store,
		repo:  repo,
		cfg:   cfg,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *photoService) EnsureCanUpload(ctx context.Context, actor model.Actor, documentID string) error {
	if err := auth.Require(auth.OpUploadPhoto, actor); err != nil {
		return err
	}
	role := model.NormalizeRole(string(actor.Role))
	if role != model.RoleMagacioner {
		// admin, menadzer, sef may always upload.
		return nil
	}

	// A magacioner may only attach evidence to the document currently
	// assigned to them, and only while work on it is still open.
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return asNotFound(err, "document", documentID)
	}
	if doc.AssignedTo == nil || *doc.AssignedTo != actor.ID {
		return apperr.Forbidden("document %s is not assigned to you", documentID)
	}
	if doc.Status == model.StatusCompleted {
		return apperr.Forbidden("document %s is completed; evidence can no longer be added", documentID)
	}
	return nil
}

func (s *photoService) Upload(ctx context.Context, actor model.Actor, in UploadPhotoInput, r io.Reader) (*model.ReceivingPhoto, error) {
	if r == nil {
		return nil, apperr.Validation("photo content is required")
	}
	if err := s.EnsureCanUpload(ctx, actor, in.DocumentID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDocument(ctx, in.DocumentID); err != nil {
		return nil, asNotFound(err, "document", in.DocumentID)
	}
	if in.ItemID != nil && *in.ItemID != "" {
		item, err := s.repo.GetItem(ctx, *in.ItemID)
		if err != nil {
			return nil, asNotFound(err, "item", *in.ItemID)
		}
		if item.DocumentID != in.DocumentID {
			return nil, apperr.Validation("item %s does not belong to document %s", *in.ItemID, in.DocumentID)
		}
	}

	ext := filepath.Ext(in.OriginalFilename)
	key := filepath.ToSlash(filepath.Join("receivings", in.DocumentID, uuid.NewString()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.OriginalFilename,
			"uploaded-by":       actor.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	photo := &model.ReceivingPhoto{
		ID:         uuid.NewString(),
		DocumentID: in.DocumentID,
		ItemID:     in.ItemID,
		PhotoURL:   objInfo.Key,
		Caption:    in.Caption,
		UploadedBy: actor.ID,
		UploadedAt: s.now(),
	}
	stored, err := s.repo.CreatePhoto(ctx, photo)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns the document's photos with presigned download URLs.
func (s *photoService) List(ctx context.Context, documentID string) ([]PhotoView, error) {
	if _, err := s.repo.GetDocument(ctx, documentID); err != nil {
		return nil, asNotFound(err, "document", documentID)
	}
	photos, err := s.repo.ListPhotos(ctx, documentID)
	if err != nil {
		return nil, err
	}

	expiry := time.Duration(s.cfg.PhotoURLExpirySec) * time.Second
	views := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		url, err := s.store.PresignGet(ctx, p.PhotoURL, expiry)
		if err != nil {
			// A broken object reference should not hide the rest of the
			// evidence; log and return the record without a URL.
			s.log.WarnContext(ctx, "presign failed", "photo_id", p.ID, "error", err)
			url = ""
		}
		views = append(views, PhotoView{ReceivingPhoto: p, DownloadURL: url})
	}
	return views, nil
}
