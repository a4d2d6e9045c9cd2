package model

import "time"

// DocumentStatus is the workflow state of a receiving document.
type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "DRAFT"
	StatusInProgress DocumentStatus = "IN_PROGRESS"
	StatusOnHold     DocumentStatus = "ON_HOLD"
	StatusCompleted  DocumentStatus = "COMPLETED"
)

// ItemStatus is derived from received vs expected quantity; it is never
// trusted verbatim from input.
type ItemStatus string

const (
	ItemPending  ItemStatus = "PENDING"
	ItemPartial  ItemStatus = "PARTIAL"
	ItemReceived ItemStatus = "RECEIVED"
)

// DeriveItemStatus recomputes the line status from quantities.
// 0 received is PENDING, anything short of expected is PARTIAL,
// expected or more is RECEIVED.
func DeriveItemStatus(received, expected float64) ItemStatus {
	switch {
	case received <= 0:
		return ItemPending
	case received < expected:
		return ItemPartial
	default:
		return ItemReceived
	}
}

// ReceivingDocument represents one intake document (a delivery being received).
// This is a pure domain model with no database-specific dependencies or tags.
type ReceivingDocument struct {
	ID                    string         `json:"id"`
	DocumentNumber        string         `json:"document_number"`
	SupplierID            string         `json:"supplier_id"`
	InvoiceNumber         string         `json:"invoice_number,omitempty"`
	PantheonInvoiceNumber string         `json:"pantheon_invoice_number,omitempty"`
	Status                DocumentStatus `json:"status"`
	AssignedTo            *string        `json:"assigned_to"`
	CreatedBy             string         `json:"created_by"`
	HoldReason            *string        `json:"hold_reason,omitempty"`
	Notes                 string         `json:"notes,omitempty"`
	StoreName             string         `json:"store_name,omitempty"`
	ResponsiblePerson     string         `json:"responsible_person,omitempty"`
	DocumentDate          *time.Time     `json:"document_date,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	StartedAt             *time.Time     `json:"started_at,omitempty"`
	CompletedAt           *time.Time     `json:"completed_at,omitempty"`
}

// ReceivingItem is one line of a receiving document. Items are owned
// exclusively by their document; deleting the document cascades to them.
type ReceivingItem struct {
	ID               string     `json:"id"`
	DocumentID       string     `json:"document_id"`
	ItemID           string     `json:"item_id"`
	Barcode          *string    `json:"barcode,omitempty"`
	ExpectedQuantity float64    `json:"expected_quantity"`
	ReceivedQuantity float64    `json:"received_quantity"`
	Status           ItemStatus `json:"status"`
	LocationID       *string    `json:"location_id,omitempty"`
	PalletID         *string    `json:"pallet_id,omitempty"`
	ConditionNotes   *string    `json:"condition_notes,omitempty"`
}

// Annotated reports whether the line carries a non-empty discrepancy note.
func (it ReceivingItem) Annotated() bool {
	return it.ConditionNotes != nil && *it.ConditionNotes != ""
}

// ReceivingPhoto is evidence attached to a document, optionally scoped to a
// single line. ItemID is nil for legacy document-level photos.
type ReceivingPhoto struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	ItemID     *string   `json:"item_id,omitempty"`
	PhotoURL   string    `json:"photo_url"`
	Caption    *string   `json:"caption,omitempty"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}
