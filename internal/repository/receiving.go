package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g. postgres) inside this directory.

import (
	"context"
	"time"

	"receivingapi/internal/model"
)

// ReceivingRepository defines persistence for receiving documents, their
// items and photos, plus the read-side projections the dashboard consumes.
// No business logic here — strictly persistence operations.
//
// Transition atomicity: the engine wraps each document mutation in Locked,
// which opens a transaction and takes a row lock on the document so no other
// transition for the same document can interleave. Repository methods called
// inside fn join that transaction. Different documents are independent.
type ReceivingRepository interface {
	// Locked runs fn inside a transaction that holds a document-level lock
	// (SELECT ... FOR UPDATE on the document row). Returns the row-lookup
	// error if the document does not exist.
	Locked(ctx context.Context, documentID string, fn func(ctx context.Context) error) error

	// Transact runs fn inside a plain transaction without a pre-acquired
	// lock. Used by import confirmation: document creation plus all line
	// insertions commit or roll back together.
	Transact(ctx context.Context, fn func(ctx context.Context) error) error

	CreateDocument(ctx context.Context, doc *model.ReceivingDocument) (*model.ReceivingDocument, error)
	GetDocument(ctx context.Context, id string) (*model.ReceivingDocument, error)
	// FindByNumber looks a document up by its unique document number.
	FindByNumber(ctx context.Context, documentNumber string) (*model.ReceivingDocument, error)
	UpdateDocument(ctx context.Context, doc *model.ReceivingDocument) error
	// DeleteDocument removes the document; items and photos cascade.
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, q DocumentQuery) (*PageResult[model.ReceivingDocument], error)

	CreateItem(ctx context.Context, item *model.ReceivingItem) (*model.ReceivingItem, error)
	GetItem(ctx context.Context, id string) (*model.ReceivingItem, error)
	// FindItem returns the line of a document referencing the given catalog
	// item, for merge-on-add.
	FindItem(ctx context.Context, documentID, catalogItemID string) (*model.ReceivingItem, error)
	UpdateItem(ctx context.Context, item *model.ReceivingItem) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, documentID string) ([]model.ReceivingItem, error)

	CreatePhoto(ctx context.Context, photo *model.ReceivingPhoto) (*model.ReceivingPhoto, error)
	ListPhotos(ctx context.Context, documentID string) ([]model.ReceivingPhoto, error)

	// Read-side projections for dashboard and stats.
	CountByStatus(ctx context.Context) (map[model.DocumentStatus]int, error)
	AvgCompletionSeconds(ctx context.Context) (float64, error)
	OpenCountByAssignee(ctx context.Context) (map[string]int, error)
	CreatedSince(ctx context.Context, since time.Time) (int, error)
	CompletedSince(ctx context.Context, since time.Time) (int, error)
	ItemsReceivedSince(ctx context.Context, since time.Time) (int, error)
}

// DocumentQuery filters and paginates document listings.
type DocumentQuery struct {
	Statuses   []model.DocumentStatus
	AssignedTo string
	Limit      int
	Offset     int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
