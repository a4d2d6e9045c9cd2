package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"receivingapi/internal/apperr"
	"receivingapi/internal/auth"
	"receivingapi/internal/catalog"
	"receivingapi/internal/config"
	"receivingapi/internal/model"
	"receivingapi/internal/repository"
)

// CreateDocumentInput carries the caller-supplied fields for a new document.
type CreateDocumentInput struct {
	DocumentNumber        string     `json:"document_number"`
	SupplierID            string     `json:"supplier_id"`
	InvoiceNumber         string     `json:"invoice_number"`
	PantheonInvoiceNumber string     `json:"pantheon_invoice_number"`
	AssignedToUserID      *string    `json:"assigned_to_user_id"`
	Notes                 string     `json:"notes"`
	StoreName             string     `json:"store_name"`
	ResponsiblePerson     string     `json:"responsible_person"`
	DocumentDate          *time.Time `json:"document_date"`
}

// AddItemInput carries a new line for a document.
type AddItemInput struct {
	ItemID           string  `json:"item_id"`
	ExpectedQuantity float64 `json:"expected_quantity"`
	Barcode          *string `json:"barcode"`
}

// UpdateItemInput is a partial patch; nil fields are left untouched. A
// caller-supplied Status is accepted only when consistent with the derived
// value, otherwise the derivation wins.
type UpdateItemInput struct {
	ReceivedQuantity *float64          `json:"received_quantity"`
	Status           *model.ItemStatus `json:"status"`
	LocationID       *string           `json:"location_id"`
	PalletID         *string           `json:"pallet_id"`
	ConditionNotes   *string           `json:"condition_notes"`
}

// DocumentWithItems bundles a document with its lines for read endpoints.
type DocumentWithItems struct {
	model.ReceivingDocument
	Items []model.ReceivingItem `json:"items"`
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.ReceivingDocument `json:"data"`
	Total int                       `json:"total"`
}

// ListQuery filters document listings.
type ListQuery struct {
	Statuses   []model.DocumentStatus
	AssignedTo string
	Limit      int
	Offset     int
}

// SkippedDocument names a bulk-delete id that was not deleted and why.
type SkippedDocument struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkDeleteResult reports partial-failure semantics for bulk deletion.
type BulkDeleteResult struct {
	Deleted []string          `json:"deleted"`
	Skipped []SkippedDocument `json:"skipped"`
}

// ReceivingService is the workflow engine: it owns document and item state,
// enforces transition legality and the role gates, and computes nothing it
// can derive lazily. Every mutation runs under a document-level lock.
type ReceivingService interface {
	Create(ctx context.Context, in CreateDocumentInput, actor model.Actor) (*model.ReceivingDocument, error)
	Get(ctx context.Context, id string) (*DocumentWithItems, error)
	List(ctx context.Context, q ListQuery) (*DocumentListResult, error)

	// Start moves DRAFT or ON_HOLD to IN_PROGRESS and assigns a worker.
	// Starting an IN_PROGRESS document with a different assignee reassigns
	// without erroring; the reassignment is logged for audit.
	Start(ctx context.Context, documentID, assigneeID string, actor model.Actor) (*model.ReceivingDocument, error)
	Hold(ctx context.Context, documentID, reason string, actor model.Actor) (*model.ReceivingDocument, error)
	Release(ctx context.Context, documentID string, actor model.Actor) (*model.ReceivingDocument, error)
	Reassign(ctx context.Context, documentID, newAssigneeID string, actor model.Actor) (*model.ReceivingDocument, error)
	// Complete closes the document once every line is RECEIVED or carries a
	// condition note. Idempotent on already-COMPLETED documents.
	Complete(ctx context.Context, documentID string, actor model.Actor) (*model.ReceivingDocument, error)
	Delete(ctx context.Context, documentID string, actor model.Actor) error
	DeleteBulk(ctx context.Context, documentIDs []string, actor model.Actor) (*BulkDeleteResult, error)

	// AddItem merges into an existing line for the same catalog item instead
	// of creating a duplicate.
	AddItem(ctx context.Context, documentID string, in AddItemInput, actor model.Actor) (*model.ReceivingItem, error)
	UpdateItem(ctx context.Context, itemID string, in UpdateItemInput, actor model.Actor) (*model.ReceivingItem, error)
	DeleteItem(ctx context.Context, itemID string, actor model.Actor) error
}

type receivingService struct {
	repo    repository.ReceivingRepository
	catalog catalog.Gateway
	cfg     config.ReceivingConfig
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewReceivingService constructs the workflow engine. metrics may be nil.
func NewReceivingService(repo repository.ReceivingRepository, gw catalog.Gateway, cfg config.ReceivingConfig, log *slog.Logger, metrics *Metrics) ReceivingService {
	return &receivingService{
		repo:    repo,
		catalog: gw,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// asNotFound converts a missing-row error into the taxonomy, passing other
// errors through.
func asNotFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s %s not found", what, id)
	}
	return err
}

func (s *receivingService) Create(ctx context.Context, in CreateDocumentInput, actor model.Actor) (*model.ReceivingDocument, error) {
	if in.DocumentNumber == "" {
		return nil, apperr.Validation("document_number is required")
	}
	if in.SupplierID == "" {
		return nil, apperr.Validation("supplier_id is required")
	}
	if actor.ID == "" {
		return nil, apperr.Validation("creating actor is required")
	}

	if _, err := s.catalog.ResolveSupplier(ctx, in.SupplierID); err != nil {
		return nil, asNotFound(err, "supplier", in.SupplierID)
	}
	if in.AssignedToUserID != nil && *in.AssignedToUserID != "" {
		if err := s.resolveActiveUser(ctx, *in.AssignedToUserID); err != nil {
			return nil, err
		}
	}

	if existing, err := s.repo.FindByNumber(ctx, in.DocumentNumber); err == nil && existing != nil {
		return nil, apperr.Validation("document number %q already exists", in.DocumentNumber).
			WithDetail("document_id", existing.ID)
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	doc := &model.ReceivingDocument{
		ID:                    uuid.NewString(),
		DocumentNumber:        in.DocumentNumber,
		SupplierID:            in.SupplierID,
		InvoiceNumber:         in.InvoiceNumber,
		PantheonInvoiceNumber: in.PantheonInvoiceNumber,
		Status:                model.StatusDraft,
		CreatedBy:             actor.ID,
		Notes:                 in.Notes,
		StoreName:             in.StoreName,
		ResponsiblePerson:     in.ResponsiblePerson,
		DocumentDate:          in.DocumentDate,
		CreatedAt:             s.now(),
	}
	// Pre-assignment alone does not start work; the document stays DRAFT.
	if in.AssignedToUserID != nil && *in.AssignedToUserID != "" {
		doc.AssignedTo = in.AssignedToUserID
	}

	stored, err := s.repo.CreateDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.metrics.observeTransition("", string(model.StatusDraft))
	return stored, nil
}

func (s *receivingService) Get(ctx context.Context, id string) (*DocumentWithItems, error) {
	if id == "" {
		return nil, apperr.Validation("id is required")
	}
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "document", id)
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentWithItems{ReceivingDocument: *doc, Items: items}, nil
}

func (s *receivingService) List(ctx context.Context, q ListQuery) (*DocumentListResult, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	res, err := s.repo.ListDocuments(ctx, repository.DocumentQuery{
		Statuses:   q.Statuses,
		AssignedTo: q.AssignedTo,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// resolveActiveUser checks the assignee exists and is active.
func (s *receivingService) resolveActiveUser(ctx context.Context, userID string) error {
	u, err := s.catalog.ResolveUser(ctx, userID)
	if err != nil {
		return asNotFound(err, "user", userID)
	}
	if !u.Active {
		return apperr.Validation("user %s is not active", userID)
	}
	return nil
}

func (s *receivingService) Start(ctx context.Context, documentID, assigneeID string, actor model.Actor) (*model.ReceivingDocument, error) {
	if assigneeID == "" {
		return nil, apperr.Validation("assignee id is required")
	}
	// Catalog lookups happen before the document lock to keep hold time short.
	if err := s.resolveActiveUser(ctx, assigneeID); err != nil {
		return nil, err
	}

	var out *model.ReceivingDocument
	err := s.repo.Locked(ctx, documentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if doc.Status == model.StatusCompleted {
			return apperr.Conflict("document %s is already completed", documentID)
		}

		prev := doc.Status
		if doc.AssignedTo != nil && *doc.AssignedTo != assigneeID {
			s.log.InfoContext(ctx, "receiving reassigned",
				"document_id", documentID,
				"from_user", *doc.AssignedTo,
				"to_user", assigneeID,
				"actor_id", actor.ID,
			)
		}
		doc.AssignedTo = &assigneeID
		doc.HoldReason = nil
		doc.Status = model.StatusInProgress
		if doc.StartedAt == nil {
			t := s.now()
			doc.StartedAt = &t
		}
		if err := s.repo.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		if prev != doc.Status {
			s.metrics.observeTransition(string(prev), string(doc.Status))
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, asNotFound(err, "document", documentID)
	}
	return out, nil
}

func (s *receivingService) Hold(ctx context.Context, documentID, reason string, actor model.Actor) (*model.ReceivingDocument, error) {
	if reason == "" {
		return nil, apperr.Validation("hold reason is required")
	}

	var out *model.ReceivingDocument
	err := s.repo.Locked(ctx, documentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if doc.Status != model.StatusInProgress {
			return apperr.Conflict("document %s is %s, only IN_PROGRESS documents can be put on hold", documentID, doc.Status)
		}
		doc.Status = model.StatusOnHold
		doc.HoldReason = &reason
		if err := s.repo.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		s.metrics.observeTransition(string(model.StatusInProgress), string(model.StatusOnHold))
		s.log.InfoContext(ctx, "receiving put on hold",
			"document_id", documentID, "reason", reason, "actor_id", actor.ID)
		out = doc
		return nil
	})
	if err != nil {
		return nil, asNotFound(err, "document", documentID)
	}
	return out, nil
}

func (s *receivingService) Release(ctx context.Context, documentID string, actor model.Actor) (*model.ReceivingDocument, error) {
	var out *model.ReceivingDocument
	err := s.repo.Locked(ctx, documentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if doc.Status != model.StatusOnHold {
			return apperr.Conflict("document %s is %s, only ON_HOLD documents can be released", documentID, doc.Status)
		}
		doc.Status = model.StatusInProgress
		doc.HoldReason = nil
		if err := s.repo.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		s.metrics.observeTransition(string(model.StatusOnHold), string(model.StatusInProgress))
		out = doc
		return nil
	})
	if err != nil {
		return nil, asNotFound(err, "document", documentID)
	}
	return out, nil
}

func (s *receivingService) Reassign(ctx context.Context, documentID, newAssigneeID string, actor model.Actor) (*model.ReceivingDocument, error) {
	if err := auth.Require(auth.OpReassign, actor); err != nil {
		return nil, err
	}
	if newAssigneeID == "" {
		return nil, apperr.Validation("assignee id is required")
	}
	if err := s.resolveActiveUser(ctx, newAssigneeID); err != nil {
		return nil, err
	}

	var out *model.ReceivingDocument
	err := s.repo.Locked(ctx, documentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if doc.Status == model.StatusCompleted {
			return apperr.Conflict("document %s is already completed", documentID)
		}
		prev := ""
		if doc.AssignedTo != nil {
			prev = *doc.AssignedTo
		}
		// Unlike Start, reassignment never changes the workflow status.
		doc.AssignedTo = &newAssigneeID
		if err := s.repo.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		s.log.InfoContext(ctx, "receiving reassigned",
			"document_id", documentID, "from_user", prev, "to_user", newAssigneeID, "actor_id", actor.ID)
		out = doc
		return nil
	})
	if err != nil {
		return nil, asNotFound(err, "document", documentID)
	}
	return out, nil
}

func (s *receivingService) Complete(ctx context.Context, documentID string, actor model.Actor) (*model.ReceivingDocument, error) {
	var out *model.ReceivingDocument
	err := s.repo.Locked(ctx, documentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		// Idempotent: completing a COMPLETED document returns it unchanged.
		if doc.Status == model.StatusCompleted {
			out = doc
			return nil
		}
		if doc.Status != model.StatusInProgress && doc.Status != model.StatusOnHold {
			return apperr.Conflict("document %s is %s and cannot be completed", documentID, doc.Status)
		}

		items, err := s.repo.ListItems(ctx, documentID)
		if err != nil {
			return err
		}
		// Gate: every line fully received, or its discrepancy annotated.
		offending := make([]string, 0)
		for _, it := range items {
			if it.Status != model.ItemReceived && !it.Annotated() {
				offending = append(offending, it.ID)
			}
		}
		if len(offending) > 0 {
			return apperr.Validation("document has unreceived items without condition notes").
				WithDetail("item_ids", offending)
		}

		prev := doc.Status
		doc.Status = model.StatusCompleted
		doc.HoldReason = nil
		t := s.now()
		doc.CompletedAt = &t
		if err := s.repo.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		s.metrics.observeTransition(string(prev), string(model.StatusCompleted))
		out = doc
		return nil
	})
	if err != nil {
		return nil, asNotFound(err, "document", documentID)
	}
	return out, nil
}

func (s *receivingService) Delete(ctx context.Context, documentID string, actor model.Actor) error {
	if err := auth.Require(auth.OpDeleteDocument, actor); err != nil {
		return err
	}
	err := s.repo.Locked(ctx, documentID, func(ctx context.Context) error {
		return s.repo.DeleteDocument(ctx, documentID)
	})
	return asNotFound(err, "document", documentID)
}

// DeleteBulk processes each id independently under its own document lock and
// reports partial failures instead of aborting the batch. COMPLETED
// documents are skipped: deleting them would silently discard evidence.
func (s *receivingService) DeleteBulk(ctx context.Context, documentIDs []string, actor model.Actor) (*BulkDeleteResult, error) {
	if err := auth.Require(auth.OpDeleteDocument, actor); err != nil {
		return nil, err
	}

	res := &BulkDeleteResult{Deleted: make([]string, 0, len(documentIDs)), Skipped: make([]SkippedDocument, 0)}
	for _, id := range documentIDs {
		err := s.repo.Locked(ctx, id, func(ctx context.Context) error {
			doc, err := s.repo.GetDocument(ctx, id)
			if err != nil {
				return err
			}
			if doc.Status == model.StatusCompleted {
				return apperr.Conflict("document is completed")
			}
			return s.repo.DeleteDocument(ctx, id)
		})
		switch {
		case err == nil:
			res.Deleted = append(res.Deleted, id)
		case errors.Is(err, sql.ErrNoRows):
			res.Skipped = append(res.Skipped, SkippedDocument{ID: id, Reason: "document not found"})
		case apperr.IsConflict(err):
			res.Skipped = append(res.Skipped, SkippedDocument{ID: id, Reason: "document is completed"})
		default:
			return nil, err
		}
	}
	if len(res.Skipped) > 0 {
		s.log.InfoContext(ctx, "bulk delete skipped documents",
			"actor_id", actor.ID, "deleted", len(res.Deleted), "skipped", len(res.Skipped))
	}
	return res, nil
}

func (s *receivingService) AddItem(ctx context.Context, documentID string, in AddItemInput, actor model.Actor) (*model.ReceivingItem, error) {
	if in.ItemID == "" {
		return nil, apperr.Validation("item_id is required")
	}
	if in.ExpectedQuantity < 0 {
		return nil, apperr.Validation("expected_quantity must be non-negative")
	}
	if _, err := s.catalog.ResolveItem(ctx, in.ItemID); err != nil {
		return nil, asNotFound(err, "catalog item", in.ItemID)
	}

	var out *model.ReceivingItem
	err := s.repo.Locked(ctx, documentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if doc.Status == model.StatusCompleted {
			return apperr.Conflict("document %s is already completed", documentID)
		}

		existing, err := s.repo.FindItem(ctx, documentID, in.ItemID)
		switch {
		case err == nil:
			// Same catalog item scanned or imported again: merge into the
			// existing line instead of duplicating it.
			existing.ExpectedQuantity += in.ExpectedQuantity
			if in.Barcode != nil {
				existing.Barcode = in.Barcode
			}
			existing.Status = model.DeriveItemStatus(existing.ReceivedQuantity, existing.ExpectedQuantity)
			if err := s.repo.UpdateItem(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		case errors.Is(err, sql.ErrNoRows):
			item := &model.ReceivingItem{
				ID:               uuid.NewString(),
				DocumentID:       documentID,
				ItemID:           in.ItemID,
				Barcode:          in.Barcode,
				ExpectedQuantity: in.ExpectedQuantity,
				Status:           model.DeriveItemStatus(0, in.ExpectedQuantity),
			}
			stored, err := s.repo.CreateItem(ctx, item)
			if err != nil {
				return err
			}
			out = stored
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, asNotFound(err, "document", documentID)
	}
	return out, nil
}

func (s *receivingService) UpdateItem(ctx context.Context, itemID string, in UpdateItemInput, actor model.Actor) (*model.ReceivingItem, error) {
	if in.ReceivedQuantity != nil && *in.ReceivedQuantity < 0 {
		return nil, apperr.Validation("received_quantity must be non-negative")
	}
	if in.LocationID != nil && *in.LocationID != "" {
		if _, err := s.catalog.ResolveLocation(ctx, *in.LocationID); err != nil {
			return nil, asNotFound(err, "location", *in.LocationID)
		}
	}

	// The item's document id is needed to take the right lock.
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, asNotFound(err, "item", itemID)
	}

	var out *model.ReceivingItem
	err = s.repo.Locked(ctx, item.DocumentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, item.DocumentID)
		if err != nil {
			return err
		}
		if doc.Status == model.StatusCompleted {
			return apperr.Conflict("document %s is already completed", item.DocumentID)
		}

		// Re-read under the lock; the pre-lock copy may be stale.
		item, err = s.repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}

		if in.ReceivedQuantity != nil {
			item.ReceivedQuantity = *in.ReceivedQuantity
		}
		if in.LocationID != nil {
			item.LocationID = in.LocationID
		}
		if in.PalletID != nil {
			item.PalletID = in.PalletID
		}
		if in.ConditionNotes != nil {
			item.ConditionNotes = in.ConditionNotes
		}

		// Over-receipt beyond tolerance is a discrepancy and needs a note,
		// same as under-receipt at completion time.
		limit := item.ExpectedQuantity * (1 + s.cfg.OverReceiptTolerance)
		if item.ReceivedQuantity > limit && !item.Annotated() {
			return apperr.Validation("received quantity %.2f exceeds expected %.2f; condition notes are required",
				item.ReceivedQuantity, item.ExpectedQuantity).
				WithDetail("item_ids", []string{item.ID})
		}

		// Status is derived, never trusted from input.
		item.Status = model.DeriveItemStatus(item.ReceivedQuantity, item.ExpectedQuantity)
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, asNotFound(err, "item", itemID)
	}
	return out, nil
}

func (s *receivingService) DeleteItem(ctx context.Context, itemID string, actor model.Actor) error {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return asNotFound(err, "item", itemID)
	}
	err = s.repo.Locked(ctx, item.DocumentID, func(ctx context.Context) error {
		doc, err := s.repo.GetDocument(ctx, item.DocumentID)
		if err != nil {
			return err
		}
		if doc.Status == model.StatusCompleted {
			return apperr.Conflict("cannot delete items of completed document %s", item.DocumentID)
		}
		return s.repo.DeleteItem(ctx, itemID)
	})
	return asNotFound(err, "item", itemID)
}
