package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"receivingapi/internal/apperr"
	catalogMocks "receivingapi/internal/catalog/mocks"
	"receivingapi/internal/importer"
	"receivingapi/internal/model"
	repoMocks "receivingapi/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newImportTestService(repo *repoMocks.MockReceivingRepository, gw *catalogMocks.MockGateway) *importService {
	return &importService{
		repo:    repo,
		catalog: gw,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     func() time.Time { return testTime },
	}
}

func TestImportService_Preview(t *testing.T) {
	ctx := context.Background()
	svc := newImportTestService(new(repoMocks.MockReceivingRepository), new(catalogMocks.MockGateway))

	t.Run("empty file", func(t *testing.T) {
		_, err := svc.Preview(ctx, nil)
		assert.True(t, apperr.IsParse(err))
	})

	t.Run("garbage bytes", func(t *testing.T) {
		_, err := svc.Preview(ctx, []byte("definitely not a zip archive"))
		assert.True(t, apperr.IsParse(err))
	})
}

func confirmInput() ConfirmImportInput {
	return ConfirmImportInput{
		ImportPreview: ImportPreview{
			DocumentNumber: "PO-777",
			Lines: []importer.Line{
				{SKU: "SKU-1", Name: "Widget", Quantity: 10, UOM: "kom"},
				{SKU: "SKU-2", Name: "Gadget", Quantity: 3, UOM: "kom"},
				{SKU: "SKU-1", Name: "Widget", Quantity: 5, UOM: "kom"},
			},
		},
		SupplierID: "sup-1",
	}
}

func TestImportService_Confirm(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{ID: "kom-1", Role: model.RoleKomercijalista}

	t.Run("happy path merges duplicate SKUs in one transaction", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		mGW := new(catalogMocks.MockGateway)
		svc := newImportTestService(mRepo, mGW)

		mGW.On("ResolveSupplier", ctx, "sup-1").Return(&model.Supplier{ID: "sup-1"}, nil)
		mGW.On("FindItemBySKU", ctx, "SKU-1").Return(&model.CatalogItem{ID: "cat-1", SKU: "SKU-1"}, nil)
		mGW.On("FindItemBySKU", ctx, "SKU-2").Return(&model.CatalogItem{ID: "cat-2", SKU: "SKU-2"}, nil)
		mRepo.On("FindByNumber", ctx, "PO-777").Return(nil, sql.ErrNoRows)
		mRepo.On("Transact", ctx, mock.Anything).Return(nil)
		mRepo.On("CreateDocument", ctx, mock.MatchedBy(func(doc *model.ReceivingDocument) bool {
			return doc.DocumentNumber == "PO-777" && doc.Status == model.StatusDraft && doc.CreatedBy == "kom-1"
		})).Return(func(ctx context.Context, doc *model.ReceivingDocument) *model.ReceivingDocument {
			return doc
		}, nil)
		mRepo.On("CreateItem", ctx, mock.MatchedBy(func(item *model.ReceivingItem) bool {
			// the two SKU-1 rows collapse into one 15-unit line
			return item.ItemID == "cat-1" && item.ExpectedQuantity == 15 && item.Status == model.ItemPending
		})).Return(func(ctx context.Context, item *model.ReceivingItem) *model.ReceivingItem {
			return item
		}, nil).Once()
		mRepo.On("CreateItem", ctx, mock.MatchedBy(func(item *model.ReceivingItem) bool {
			return item.ItemID == "cat-2" && item.ExpectedQuantity == 3
		})).Return(func(ctx context.Context, item *model.ReceivingItem) *model.ReceivingItem {
			return item
		}, nil).Once()

		doc, err := svc.Confirm(ctx, confirmInput(), actor)

		require.NoError(t, err)
		assert.Len(t, doc.Items, 2)
		mRepo.AssertExpectations(t)
		mGW.AssertExpectations(t)
	})

	t.Run("unknown SKUs are rejected before anything is written", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		mGW := new(catalogMocks.MockGateway)
		svc := newImportTestService(mRepo, mGW)

		mGW.On("ResolveSupplier", ctx, "sup-1").Return(&model.Supplier{ID: "sup-1"}, nil)
		mGW.On("FindItemBySKU", ctx, "SKU-1").Return(&model.CatalogItem{ID: "cat-1"}, nil)
		mGW.On("FindItemBySKU", ctx, "SKU-2").Return(nil, sql.ErrNoRows)

		_, err := svc.Confirm(ctx, confirmInput(), actor)

		require.True(t, apperr.IsValidation(err))
		var e *apperr.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, []string{"SKU-2"}, e.Details["skus"])
		mRepo.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything)
	})

	t.Run("duplicate number without overwrite conflicts", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		mGW := new(catalogMocks.MockGateway)
		svc := newImportTestService(mRepo, mGW)

		mGW.On("ResolveSupplier", ctx, "sup-1").Return(&model.Supplier{ID: "sup-1"}, nil)
		mGW.On("FindItemBySKU", ctx, mock.Anything).Return(&model.CatalogItem{ID: "cat-1"}, nil)
		mRepo.On("FindByNumber", ctx, "PO-777").
			Return(&model.ReceivingDocument{ID: "old", Status: model.StatusDraft}, nil)

		_, err := svc.Confirm(ctx, confirmInput(), actor)

		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("overwrite replaces the existing document", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		mGW := new(catalogMocks.MockGateway)
		svc := newImportTestService(mRepo, mGW)

		mGW.On("ResolveSupplier", ctx, "sup-1").Return(&model.Supplier{ID: "sup-1"}, nil)
		mGW.On("FindItemBySKU", ctx, "SKU-1").Return(&model.CatalogItem{ID: "cat-1"}, nil)
		mGW.On("FindItemBySKU", ctx, "SKU-2").Return(&model.CatalogItem{ID: "cat-2"}, nil)
		mRepo.On("FindByNumber", ctx, "PO-777").
			Return(&model.ReceivingDocument{ID: "old", Status: model.StatusDraft}, nil)
		mRepo.On("Transact", ctx, mock.Anything).Return(nil)
		mRepo.On("DeleteDocument", ctx, "old").Return(nil)
		mRepo.On("CreateDocument", ctx, mock.Anything).
			Return(func(ctx context.Context, doc *model.ReceivingDocument) *model.ReceivingDocument {
				return doc
			}, nil)
		mRepo.On("CreateItem", ctx, mock.Anything).
			Return(func(ctx context.Context, item *model.ReceivingItem) *model.ReceivingItem {
				return item
			}, nil)

		in := confirmInput()
		in.Overwrite = true
		doc, err := svc.Confirm(ctx, in, actor)

		require.NoError(t, err)
		assert.NotEqual(t, "old", doc.ID)
		mRepo.AssertExpectations(t)
	})

	t.Run("completed documents are never overwritten", func(t *testing.T) {
		mRepo := new(repoMocks.MockReceivingRepository)
		mGW := new(catalogMocks.MockGateway)
		svc := newImportTestService(mRepo, mGW)

		mGW.On("ResolveSupplier", ctx, "sup-1").Return(&model.Supplier{ID: "sup-1"}, nil)
		mGW.On("FindItemBySKU", ctx, mock.Anything).Return(&model.CatalogItem{ID: "cat-1"}, nil)
		mRepo.On("FindByNumber", ctx, "PO-777").
			Return(&model.ReceivingDocument{ID: "old", Status: model.StatusCompleted}, nil)

		in := confirmInput()
		in.Overwrite = true
		_, err := svc.Confirm(ctx, in, actor)

		assert.True(t, apperr.IsConflict(err))
		mRepo.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything)
	})

	t.Run("no lines", func(t *testing.T) {
		svc := newImportTestService(new(repoMocks.MockReceivingRepository), new(catalogMocks.MockGateway))

		in := confirmInput()
		in.Lines = nil
		_, err := svc.Confirm(ctx, in, actor)

		assert.True(t, apperr.IsValidation(err))
	})
}
