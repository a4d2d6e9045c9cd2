package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"receivingapi/internal/apperr"
	"receivingapi/internal/catalog"
	"receivingapi/internal/importer"
	"receivingapi/internal/model"
	"receivingapi/internal/repository"
)

// ImportPreview is the stateless first phase of an import: the parsed
// workbook plus the document number the confirm phase would use. Nothing is
// persisted until the caller re-submits it to Confirm.
type ImportPreview struct {
	OrderNumber       string            `json:"order_number"`
	DocumentNumber    string            `json:"document_number"`
	DocumentDate      *time.Time        `json:"document_date,omitempty"`
	ResponsiblePerson string            `json:"responsible_person,omitempty"`
	DetectedColumns   map[string]string `json:"detected_columns"`
	Lines             []importer.Line   `json:"lines"`
}

// ConfirmImportInput is the second phase: the preview structure re-submitted
// together with the references the workbook cannot carry. Overwrite replaces
// an existing non-COMPLETED document with the same number.
type ConfirmImportInput struct {
	ImportPreview
	SupplierID       string  `json:"supplier_id"`
	AssignedToUserID *string `json:"assigned_to_user_id"`
	Overwrite        bool    `json:"overwrite"`
}

// ImportService is the two-phase spreadsheet import pipeline.
type ImportService interface {
	Preview(ctx context.Context, file []byte) (*ImportPreview, error)
	Confirm(ctx context.Context, in ConfirmImportInput, actor model.Actor) (*DocumentWithItems, error)
}

type importService struct {
	repo    repository.ReceivingRepository
	catalog catalog.Gateway
	log     *slog.Logger
	now     func() time.Time
}

// NewImportService constructs the import pipeline.
func NewImportService(repo repository.ReceivingRepository, gw catalog.Gateway, log *slog.Logger) ImportService {
	return &importService{
		repo:    repo,
		catalog: gw,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Preview parses the workbook and reports the detected column mapping so the
// caller can confirm it before anything becomes durable.
func (s *importService) Preview(ctx context.Context, file []byte) (*ImportPreview, error) {
	if len(file) == 0 {
		return nil, apperr.Parse("file is empty")
	}
	wb, err := importer.Parse(file)
	if err != nil {
		return nil, err
	}
	return &ImportPreview{
		OrderNumber:       wb.OrderNumber,
		DocumentNumber:    wb.OrderNumber,
		DocumentDate:      wb.DocumentDate,
		ResponsiblePerson: wb.ResponsiblePerson,
		DetectedColumns:   wb.DetectedColumns,
		Lines:             wb.Lines,
	}, nil
}

// Confirm persists the previewed import: document creation plus every line,
// in one transaction. Either the whole document lands or nothing does.
func (s *importService) Confirm(ctx context.Context, in ConfirmImportInput, actor model.Actor) (*DocumentWithItems, error) {
	if in.DocumentNumber == "" {
		return nil, apperr.Validation("document_number is required (no order number was detected in the preview)")
	}
	if in.SupplierID == "" {
		return nil, apperr.Validation("supplier_id is required")
	}
	if len(in.Lines) == 0 {
		return nil, apperr.Validation("import has no lines")
	}

	if _, err := s.catalog.ResolveSupplier(ctx, in.SupplierID); err != nil {
		return nil, asNotFound(err, "supplier", in.SupplierID)
	}
	if in.AssignedToUserID != nil && *in.AssignedToUserID != "" {
		u, err := s.catalog.ResolveUser(ctx, *in.AssignedToUserID)
		if err != nil {
			return nil, asNotFound(err, "user", *in.AssignedToUserID)
		}
		if !u.Active {
			return nil, apperr.Validation("user %s is not active", u.ID)
		}
	}

	// Resolve every SKU and merge duplicate lines before opening the
	// transaction; catalog lookups must not run while holding locks.
	type lineItem struct {
		item     *model.CatalogItem
		expected float64
		barcode  *string
	}
	merged := make(map[string]*lineItem)
	order := make([]string, 0, len(in.Lines))
	unknown := make([]string, 0)
	for _, ln := range in.Lines {
		it, err := s.catalog.FindItemBySKU(ctx, ln.SKU)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				unknown = append(unknown, ln.SKU)
				continue
			}
			return nil, err
		}
		if li, ok := merged[it.ID]; ok {
			li.expected += ln.Quantity
			continue
		}
		merged[it.ID] = &lineItem{item: it, expected: ln.Quantity, barcode: it.Barcode}
		order = append(order, it.ID)
	}
	if len(unknown) > 0 {
		return nil, apperr.Validation("import references unknown SKUs").WithDetail("skus", unknown)
	}

	existing, err := s.repo.FindByNumber(ctx, in.DocumentNumber)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		if !in.Overwrite {
			return nil, apperr.Conflict("document number %q already exists; pass overwrite to replace it", in.DocumentNumber).
				WithDetail("document_id", existing.ID)
		}
		if existing.Status == model.StatusCompleted {
			return nil, apperr.Conflict("document %q is completed and cannot be overwritten", in.DocumentNumber)
		}
	}

	doc := &model.ReceivingDocument{
		ID:                uuid.NewString(),
		DocumentNumber:    in.DocumentNumber,
		SupplierID:        in.SupplierID,
		Status:            model.StatusDraft,
		CreatedBy:         actor.ID,
		ResponsiblePerson: in.ResponsiblePerson,
		DocumentDate:      in.DocumentDate,
		CreatedAt:         s.now(),
	}
	if in.AssignedToUserID != nil && *in.AssignedToUserID != "" {
		doc.AssignedTo = in.AssignedToUserID
	}

	var out *DocumentWithItems
	err = s.repo.Transact(ctx, func(ctx context.Context) error {
		if existing != nil {
			if err := s.repo.DeleteDocument(ctx, existing.ID); err != nil {
				return err
			}
		}
		stored, err := s.repo.CreateDocument(ctx, doc)
		if err != nil {
			return err
		}
		items := make([]model.ReceivingItem, 0, len(order))
		for _, id := range order {
			li := merged[id]
			created, err := s.repo.CreateItem(ctx, &model.ReceivingItem{
				ID:               uuid.NewString(),
				DocumentID:       stored.ID,
				ItemID:           li.item.ID,
				Barcode:          li.barcode,
				ExpectedQuantity: li.expected,
				Status:           model.DeriveItemStatus(0, li.expected),
			})
			if err != nil {
				return err
			}
			items = append(items, *created)
		}
		out = &DocumentWithItems{ReceivingDocument: *stored, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "import confirmed",
		"document_number", in.DocumentNumber,
		"document_id", out.ID,
		"lines", len(out.Items),
		"overwrote", existing != nil,
		"actor_id", actor.ID,
	)
	return out, nil
}
