package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"receivingapi/internal/model"
	"receivingapi/internal/repository"
)

// ReceivingPostgres is a PostgreSQL implementation of
// repository.ReceivingRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type ReceivingPostgres struct {
	db *sql.DB
}

// NewReceivingPostgres creates a new ReceivingPostgres repository.
func NewReceivingPostgres(db *sql.DB) *ReceivingPostgres {
	return &ReceivingPostgres{db: db}
}

var _ repository.ReceivingRepository = (*ReceivingPostgres)(nil)

type txKey struct{}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the transaction stashed in ctx by Locked/Transact, or the pool.
func (r *ReceivingPostgres) q(ctx context.Context) queryer {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

// Locked opens a transaction, takes a row lock on the document and runs fn
// with the transaction carried in the context. The lock is held until commit
// or rollback, which serializes transitions per document.
func (r *ReceivingPostgres) Locked(ctx context.Context, documentID string, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM receiving_documents WHERE id = $1 FOR UPDATE`, documentID,
	).Scan(&id); err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// Transact runs fn inside a plain transaction.
func (r *ReceivingPostgres) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

const documentColumns = `id, document_number, supplier_id, invoice_number, pantheon_invoice_number,
	status, assigned_to, created_by, hold_reason, notes, store_name, responsible_person,
	document_date, created_at, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.ReceivingDocument, error) {
	var (
		d            model.ReceivingDocument
		assignedTo   sql.NullString
		holdReason   sql.NullString
		documentDate sql.NullTime
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		status       string
	)
	if err := row.Scan(
		&d.ID, &d.DocumentNumber, &d.SupplierID, &d.InvoiceNumber, &d.PantheonInvoiceNumber,
		&status, &assignedTo, &d.CreatedBy, &holdReason, &d.Notes, &d.StoreName, &d.ResponsiblePerson,
		&documentDate, &d.CreatedAt, &startedAt, &completedAt,
	); err != nil {
		return nil, err
	}
	d.Status = model.DocumentStatus(status)
	if assignedTo.Valid {
		d.AssignedTo = &assignedTo.String
	}
	if holdReason.Valid {
		d.HoldReason = &holdReason.String
	}
	if documentDate.Valid {
		t := documentDate.Time
		d.DocumentDate = &t
	}
	if startedAt.Valid {
		t := startedAt.Time
		d.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		d.CompletedAt = &t
	}
	return &d, nil
}

// CreateDocument inserts a new document row and returns the stored record.
func (r *ReceivingPostgres) CreateDocument(ctx context.Context, doc *model.ReceivingDocument) (*model.ReceivingDocument, error) {
	q := `
		INSERT INTO receiving_documents (id, document_number, supplier_id, invoice_number,
			pantheon_invoice_number, status, assigned_to, created_by, hold_reason, notes,
			store_name, responsible_person, document_date, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + documentColumns
	row := r.q(ctx).QueryRowContext(ctx, q,
		doc.ID, doc.DocumentNumber, doc.SupplierID, doc.InvoiceNumber,
		doc.PantheonInvoiceNumber, string(doc.Status), doc.AssignedTo, doc.CreatedBy,
		doc.HoldReason, doc.Notes, doc.StoreName, doc.ResponsiblePerson,
		doc.DocumentDate, doc.CreatedAt, doc.StartedAt, doc.CompletedAt,
	)
	return scanDocument(row)
}

// GetDocument fetches a single document by its ID.
func (r *ReceivingPostgres) GetDocument(ctx context.Context, id string) (*model.ReceivingDocument, error) {
	q := `SELECT ` + documentColumns + ` FROM receiving_documents WHERE id = $1`
	return scanDocument(r.q(ctx).QueryRowContext(ctx, q, id))
}

// FindByNumber fetches a document by its unique document number.
func (r *ReceivingPostgres) FindByNumber(ctx context.Context, documentNumber string) (*model.ReceivingDocument, error) {
	q := `SELECT ` + documentColumns + ` FROM receiving_documents WHERE document_number = $1`
	return scanDocument(r.q(ctx).QueryRowContext(ctx, q, documentNumber))
}

// UpdateDocument writes all mutable fields of the document.
func (r *ReceivingPostgres) UpdateDocument(ctx context.Context, doc *model.ReceivingDocument) error {
	const q = `
		UPDATE receiving_documents
		SET document_number = $2, supplier_id = $3, invoice_number = $4,
			pantheon_invoice_number = $5, status = $6, assigned_to = $7, hold_reason = $8,
			notes = $9, store_name = $10, responsible_person = $11, document_date = $12,
			started_at = $13, completed_at = $14
		WHERE id = $1
	`
	res, err := r.q(ctx).ExecContext(ctx, q,
		doc.ID, doc.DocumentNumber, doc.SupplierID, doc.InvoiceNumber,
		doc.PantheonInvoiceNumber, string(doc.Status), doc.AssignedTo, doc.HoldReason,
		doc.Notes, doc.StoreName, doc.ResponsiblePerson, doc.DocumentDate,
		doc.StartedAt, doc.CompletedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteDocument removes a document by ID. Items and photos cascade via
// foreign keys.
func (r *ReceivingPostgres) DeleteDocument(ctx context.Context, id string) error {
	const q = `DELETE FROM receiving_documents WHERE id = $1`
	_, err := r.q(ctx).ExecContext(ctx, q, id)
	return err
}

// ListDocuments returns documents matching the query using LIMIT/OFFSET
// pagination and a total count.
func (r *ReceivingPostgres) ListDocuments(ctx context.Context, dq repository.DocumentQuery) (*repository.PageResult[model.ReceivingDocument], error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if len(dq.Statuses) > 0 {
		placeholders := make([]string, len(dq.Statuses))
		for i, s := range dq.Statuses {
			args = append(args, string(s))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if dq.AssignedTo != "" {
		args = append(args, dq.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM receiving_documents"+cond, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, dq.Limit, dq.Offset)
	q := "SELECT " + documentColumns + " FROM receiving_documents" + cond +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ReceivingDocument, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.ReceivingDocument]{Items: items, Total: total}, nil
}

const itemColumns = `id, document_id, item_id, barcode, expected_quantity, received_quantity,
	status, location_id, pallet_id, condition_notes`

func scanItem(row rowScanner) (*model.ReceivingItem, error) {
	var (
		it         model.ReceivingItem
		barcode    sql.NullString
		locationID sql.NullString
		palletID   sql.NullString
		notes      sql.NullString
		status     string
	)
	if err := row.Scan(
		&it.ID, &it.DocumentID, &it.ItemID, &barcode, &it.ExpectedQuantity, &it.ReceivedQuantity,
		&status, &locationID, &palletID, &notes,
	); err != nil {
		return nil, err
	}
	it.Status = model.ItemStatus(status)
	if barcode.Valid {
		it.Barcode = &barcode.String
	}
	if locationID.Valid {
		it.LocationID = &locationID.String
	}
	if palletID.Valid {
		it.PalletID = &palletID.String
	}
	if notes.Valid {
		it.ConditionNotes = &notes.String
	}
	return &it, nil
}

// CreateItem inserts a new line row and returns the stored record.
func (r *ReceivingPostgres) CreateItem(ctx context.Context, item *model.ReceivingItem) (*model.ReceivingItem, error) {
	q := `
		INSERT INTO receiving_items (id, document_id, item_id, barcode, expected_quantity,
			received_quantity, status, location_id, pallet_id, condition_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + itemColumns
	row := r.q(ctx).QueryRowContext(ctx, q,
		item.ID, item.DocumentID, item.ItemID, item.Barcode, item.ExpectedQuantity,
		item.ReceivedQuantity, string(item.Status), item.LocationID, item.PalletID, item.ConditionNotes,
	)
	return scanItem(row)
}

// GetItem fetches a single line by its ID.
func (r *ReceivingPostgres) GetItem(ctx context.Context, id string) (*model.ReceivingItem, error) {
	q := `SELECT ` + itemColumns + ` FROM receiving_items WHERE id = $1`
	return scanItem(r.q(ctx).QueryRowContext(ctx, q, id))
}

// FindItem fetches the line of a document referencing the given catalog item.
func (r *ReceivingPostgres) FindItem(ctx context.Context, documentID, catalogItemID string) (*model.ReceivingItem, error) {
	q := `SELECT ` + itemColumns + ` FROM receiving_items WHERE document_id = $1 AND item_id = $2`
	return scanItem(r.q(ctx).QueryRowContext(ctx, q, documentID, catalogItemID))
}

// UpdateItem writes all mutable fields of the line.
func (r *ReceivingPostgres) UpdateItem(ctx context.Context, item *model.ReceivingItem) error {
	const q = `
		UPDATE receiving_items
		SET barcode = $2, expected_quantity = $3, received_quantity = $4, status = $5,
			location_id = $6, pallet_id = $7, condition_notes = $8
		WHERE id = $1
	`
	res, err := r.q(ctx).ExecContext(ctx, q,
		item.ID, item.Barcode, item.ExpectedQuantity, item.ReceivedQuantity,
		string(item.Status), item.LocationID, item.PalletID, item.ConditionNotes,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteItem removes a line by ID.
func (r *ReceivingPostgres) DeleteItem(ctx context.Context, id string) error {
	const q = `DELETE FROM receiving_items WHERE id = $1`
	_, err := r.q(ctx).ExecContext(ctx, q, id)
	return err
}

// ListItems returns all lines of a document.
func (r *ReceivingPostgres) ListItems(ctx context.Context, documentID string) ([]model.ReceivingItem, error) {
	q := `SELECT ` + itemColumns + ` FROM receiving_items WHERE document_id = $1 ORDER BY id`
	rows, err := r.q(ctx).QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ReceivingItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// CreatePhoto inserts a photo row and returns the stored record.
func (r *ReceivingPostgres) CreatePhoto(ctx context.Context, photo *model.ReceivingPhoto) (*model.ReceivingPhoto, error) {
	const q = `
		INSERT INTO receiving_photos (id, document_id, item_id, photo_url, caption, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, document_id, item_id, photo_url, caption, uploaded_by, uploaded_at
	`
	row := r.q(ctx).QueryRowContext(ctx, q,
		photo.ID, photo.DocumentID, photo.ItemID, photo.PhotoURL, photo.Caption,
		photo.UploadedBy, photo.UploadedAt,
	)
	var (
		p       model.ReceivingPhoto
		itemID  sql.NullString
		caption sql.NullString
	)
	if err := row.Scan(&p.ID, &p.DocumentID, &itemID, &p.PhotoURL, &caption, &p.UploadedBy, &p.UploadedAt); err != nil {
		return nil, err
	}
	if itemID.Valid {
		p.ItemID = &itemID.String
	}
	if caption.Valid {
		p.Caption = &caption.String
	}
	return &p, nil
}

// ListPhotos returns all photos of a document, newest first.
func (r *ReceivingPostgres) ListPhotos(ctx context.Context, documentID string) ([]model.ReceivingPhoto, error) {
	const q = `
		SELECT id, document_id, item_id, photo_url, caption, uploaded_by, uploaded_at
		FROM receiving_photos
		WHERE document_id = $1
		ORDER BY uploaded_at DESC, id DESC
	`
	rows, err := r.q(ctx).QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := make([]model.ReceivingPhoto, 0)
	for rows.Next() {
		var (
			p       model.ReceivingPhoto
			itemID  sql.NullString
			caption sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.DocumentID, &itemID, &p.PhotoURL, &caption, &p.UploadedBy, &p.UploadedAt); err != nil {
			return nil, err
		}
		if itemID.Valid {
			p.ItemID = &itemID.String
		}
		if caption.Valid {
			p.Caption = &caption.String
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// CountByStatus returns document counts grouped by workflow status.
func (r *ReceivingPostgres) CountByStatus(ctx context.Context) (map[model.DocumentStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM receiving_documents GROUP BY status`
	rows, err := r.q(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.DocumentStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.DocumentStatus(status)] = n
	}
	return counts, rows.Err()
}

// AvgCompletionSeconds returns the mean start-to-complete duration across
// completed documents, 0 when none exist.
func (r *ReceivingPostgres) AvgCompletionSeconds(ctx context.Context) (float64, error) {
	const q = `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at))), 0)
		FROM receiving_documents
		WHERE completed_at IS NOT NULL AND started_at IS NOT NULL
	`
	var avg float64
	err := r.q(ctx).QueryRowContext(ctx, q).Scan(&avg)
	return avg, err
}

// OpenCountByAssignee returns open (IN_PROGRESS or ON_HOLD) document counts
// per assigned worker.
func (r *ReceivingPostgres) OpenCountByAssignee(ctx context.Context) (map[string]int, error) {
	const q = `
		SELECT assigned_to, COUNT(*)
		FROM receiving_documents
		WHERE status IN ('IN_PROGRESS', 'ON_HOLD') AND assigned_to IS NOT NULL
		GROUP BY assigned_to
	`
	rows, err := r.q(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			assignee string
			n        int
		)
		if err := rows.Scan(&assignee, &n); err != nil {
			return nil, err
		}
		counts[assignee] = n
	}
	return counts, rows.Err()
}

// CreatedSince counts documents created at or after the given time.
func (r *ReceivingPostgres) CreatedSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM receiving_documents WHERE created_at >= $1`
	var n int
	err := r.q(ctx).QueryRowContext(ctx, q, since).Scan(&n)
	return n, err
}

// CompletedSince counts documents completed at or after the given time.
func (r *ReceivingPostgres) CompletedSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM receiving_documents WHERE completed_at >= $1`
	var n int
	err := r.q(ctx).QueryRowContext(ctx, q, since).Scan(&n)
	return n, err
}

// ItemsReceivedSince counts fully received lines on documents completed at or
// after the given time.
func (r *ReceivingPostgres) ItemsReceivedSince(ctx context.Context, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM receiving_items i
		JOIN receiving_documents d ON d.id = i.document_id
		WHERE i.status = 'RECEIVED' AND d.completed_at >= $1
	`
	var n int
	err := r.q(ctx).QueryRowContext(ctx, q, since).Scan(&n)
	return n, err
}
