package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"receivingapi/internal/model"
	"receivingapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentColumnNames = []string{
	"id", "document_number", "supplier_id", "invoice_number", "pantheon_invoice_number",
	"status", "assigned_to", "created_by", "hold_reason", "notes", "store_name",
	"responsible_person", "document_date", "created_at", "started_at", "completed_at",
}

func documentRow(id string, status model.DocumentStatus, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(documentColumnNames).
		AddRow(id, "PR-001", "sup-1", "", "", string(status), nil, "creator", nil, "", "", "", nil, createdAt, nil, nil)
}

var itemColumnNames = []string{
	"id", "document_id", "item_id", "barcode", "expected_quantity", "received_quantity",
	"status", "location_id", "pallet_id", "condition_notes",
}

func TestReceivingPostgres_CreateDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.ReceivingDocument{
		ID:             "doc-1",
		DocumentNumber: "PR-001",
		SupplierID:     "sup-1",
		Status:         model.StatusDraft,
		CreatedBy:      "creator",
		CreatedAt:      now,
	}

	mock.ExpectQuery("INSERT INTO receiving_documents").
		WithArgs(doc.ID, doc.DocumentNumber, doc.SupplierID, "", "", "DRAFT", nil, "creator",
			nil, "", "", "", nil, now, nil, nil).
		WillReturnRows(documentRow("doc-1", model.StatusDraft, now))

	result, err := repo.CreateDocument(ctx, doc)

	assert.NoError(t, err)
	assert.Equal(t, "doc-1", result.ID)
	assert.Equal(t, model.StatusDraft, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceivingPostgres_GetDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()

	t.Run("found with nullable fields set", func(t *testing.T) {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(documentColumnNames).
			AddRow("doc-1", "PR-001", "sup-1", "INV-9", "", "ON_HOLD", "worker-1", "creator",
				"dock blocked", "", "", "", nil, now, now, nil)

		mock.ExpectQuery("SELECT (.+) FROM receiving_documents WHERE id = ?").
			WithArgs("doc-1").
			WillReturnRows(rows)

		doc, err := repo.GetDocument(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, model.StatusOnHold, doc.Status)
		require.NotNil(t, doc.AssignedTo)
		assert.Equal(t, "worker-1", *doc.AssignedTo)
		require.NotNil(t, doc.HoldReason)
		assert.Equal(t, "dock blocked", *doc.HoldReason)
		assert.NotNil(t, doc.StartedAt)
		assert.Nil(t, doc.CompletedAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM receiving_documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetDocument(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestReceivingPostgres_UpdateDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()

	doc := &model.ReceivingDocument{ID: "doc-1", DocumentNumber: "PR-001", Status: model.StatusInProgress}

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE receiving_documents").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateDocument(ctx, doc))
	})

	t.Run("zero rows means missing", func(t *testing.T) {
		mock.ExpectExec("UPDATE receiving_documents").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateDocument(ctx, doc), sql.ErrNoRows)
	})
}

func TestReceivingPostgres_Locked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()

	t.Run("locks, runs fn in the tx and commits", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM receiving_documents WHERE id = (.+) FOR UPDATE").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectExec("DELETE FROM receiving_documents").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Locked(ctx, "doc-1", func(ctx context.Context) error {
			// The delete must run on the transaction stashed in ctx.
			return repo.DeleteDocument(ctx, "doc-1")
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM receiving_documents WHERE id = (.+) FOR UPDATE").
			WithArgs("gone").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := repo.Locked(ctx, "gone", func(ctx context.Context) error {
			t.Fatal("fn must not run without the lock")
			return nil
		})

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fn error rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM receiving_documents WHERE id = (.+) FOR UPDATE").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectRollback()

		wantErr := errors.New("domain rule violated")
		err := repo.Locked(ctx, "doc-1", func(ctx context.Context) error {
			return wantErr
		})

		assert.ErrorIs(t, err, wantErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReceivingPostgres_Transact(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM receiving_items").
		WithArgs("line-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Transact(ctx, func(ctx context.Context) error {
		return repo.DeleteItem(ctx, "line-1")
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceivingPostgres_ListDocuments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("with status and assignee filters", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM receiving_documents WHERE status IN \(\$1, \$2\) AND assigned_to = \$3`).
			WithArgs("IN_PROGRESS", "ON_HOLD", "worker-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM receiving_documents WHERE status IN (.+) ORDER BY created_at DESC").
			WithArgs("IN_PROGRESS", "ON_HOLD", "worker-1", 10, 0).
			WillReturnRows(documentRow("doc-1", model.StatusInProgress, now))

		res, err := repo.ListDocuments(ctx, repository.DocumentQuery{
			Statuses:   []model.DocumentStatus{model.StatusInProgress, model.StatusOnHold},
			AssignedTo: "worker-1",
			Limit:      10,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "doc-1", res.Items[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unfiltered", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM receiving_documents`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM receiving_documents ORDER BY created_at DESC").
			WithArgs(5, 10).
			WillReturnRows(sqlmock.NewRows(documentColumnNames))

		res, err := repo.ListDocuments(ctx, repository.DocumentQuery{Limit: 5, Offset: 10})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})
}

func TestReceivingPostgres_Items(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		item := &model.ReceivingItem{
			ID: "line-1", DocumentID: "doc-1", ItemID: "cat-1",
			ExpectedQuantity: 10, Status: model.ItemPending,
		}
		rows := sqlmock.NewRows(itemColumnNames).
			AddRow("line-1", "doc-1", "cat-1", nil, 10.0, 0.0, "PENDING", nil, nil, nil)

		mock.ExpectQuery("INSERT INTO receiving_items").
			WithArgs("line-1", "doc-1", "cat-1", nil, 10.0, 0.0, "PENDING", nil, nil, nil).
			WillReturnRows(rows)

		stored, err := repo.CreateItem(ctx, item)

		require.NoError(t, err)
		assert.Equal(t, "line-1", stored.ID)
		assert.Nil(t, stored.Barcode)
	})

	t.Run("find by document and catalog item", func(t *testing.T) {
		rows := sqlmock.NewRows(itemColumnNames).
			AddRow("line-1", "doc-1", "cat-1", "123456", 10.0, 4.0, "PARTIAL", "loc-1", nil, "damaged")

		mock.ExpectQuery("SELECT (.+) FROM receiving_items WHERE document_id = (.+) AND item_id = ?").
			WithArgs("doc-1", "cat-1").
			WillReturnRows(rows)

		item, err := repo.FindItem(ctx, "doc-1", "cat-1")

		require.NoError(t, err)
		assert.Equal(t, model.ItemPartial, item.Status)
		require.NotNil(t, item.ConditionNotes)
		assert.Equal(t, "damaged", *item.ConditionNotes)
	})

	t.Run("update zero rows means missing", func(t *testing.T) {
		mock.ExpectExec("UPDATE receiving_items").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateItem(ctx, &model.ReceivingItem{ID: "gone"})

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("list", func(t *testing.T) {
		rows := sqlmock.NewRows(itemColumnNames).
			AddRow("line-1", "doc-1", "cat-1", nil, 10.0, 10.0, "RECEIVED", nil, nil, nil).
			AddRow("line-2", "doc-1", "cat-2", nil, 5.0, 0.0, "PENDING", nil, nil, nil)

		mock.ExpectQuery("SELECT (.+) FROM receiving_items WHERE document_id = ?").
			WithArgs("doc-1").
			WillReturnRows(rows)

		items, err := repo.ListItems(ctx, "doc-1")

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, model.ItemReceived, items[0].Status)
	})
}

func TestReceivingPostgres_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()

	t.Run("count by status", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow("DRAFT", 3).
			AddRow("COMPLETED", 7)

		mock.ExpectQuery("SELECT status, COUNT(.+) FROM receiving_documents GROUP BY status").
			WillReturnRows(rows)

		counts, err := repo.CountByStatus(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, counts[model.StatusDraft])
		assert.Equal(t, 7, counts[model.StatusCompleted])
	})

	t.Run("avg completion seconds", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").
			WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(5400.5))

		avg, err := repo.AvgCompletionSeconds(ctx)

		require.NoError(t, err)
		assert.Equal(t, 5400.5, avg)
	})

	t.Run("open count by assignee", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"assigned_to", "count"}).
			AddRow("worker-1", 2).
			AddRow("worker-2", 1)

		mock.ExpectQuery("SELECT assigned_to, COUNT(.+) FROM receiving_documents").
			WillReturnRows(rows)

		counts, err := repo.OpenCountByAssignee(ctx)

		require.NoError(t, err)
		assert.Equal(t, map[string]int{"worker-1": 2, "worker-2": 1}, counts)
	})

	t.Run("today counters", func(t *testing.T) {
		since := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT COUNT(.+) FROM receiving_documents WHERE created_at >= ?").
			WithArgs(since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectQuery("SELECT COUNT(.+) FROM receiving_documents WHERE completed_at >= ?").
			WithArgs(since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery("SELECT COUNT(.+) FROM receiving_items i").
			WithArgs(since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))

		created, err := repo.CreatedSince(ctx, since)
		require.NoError(t, err)
		completed, err := repo.CompletedSince(ctx, since)
		require.NoError(t, err)
		received, err := repo.ItemsReceivedSince(ctx, since)
		require.NoError(t, err)

		assert.Equal(t, 4, created)
		assert.Equal(t, 2, completed)
		assert.Equal(t, 31, received)
	})
}

func TestReceivingPostgres_Photos(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReceivingPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("create", func(t *testing.T) {
		photo := &model.ReceivingPhoto{
			ID: "p1", DocumentID: "doc-1", PhotoURL: "receivings/doc-1/a.jpg",
			UploadedBy: "worker-1", UploadedAt: now,
		}
		rows := sqlmock.NewRows([]string{"id", "document_id", "item_id", "photo_url", "caption", "uploaded_by", "uploaded_at"}).
			AddRow("p1", "doc-1", nil, "receivings/doc-1/a.jpg", nil, "worker-1", now)

		mock.ExpectQuery("INSERT INTO receiving_photos").
			WithArgs("p1", "doc-1", nil, "receivings/doc-1/a.jpg", nil, "worker-1", now).
			WillReturnRows(rows)

		stored, err := repo.CreatePhoto(ctx, photo)

		require.NoError(t, err)
		assert.Equal(t, "p1", stored.ID)
		assert.Nil(t, stored.ItemID)
	})

	t.Run("list", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "document_id", "item_id", "photo_url", "caption", "uploaded_by", "uploaded_at"}).
			AddRow("p2", "doc-1", "line-1", "receivings/doc-1/b.jpg", "broken seal", "worker-1", now).
			AddRow("p1", "doc-1", nil, "receivings/doc-1/a.jpg", nil, "worker-1", now.Add(-time.Hour))

		mock.ExpectQuery("SELECT (.+) FROM receiving_photos WHERE document_id = ?").
			WithArgs("doc-1").
			WillReturnRows(rows)

		photos, err := repo.ListPhotos(ctx, "doc-1")

		require.NoError(t, err)
		require.Len(t, photos, 2)
		require.NotNil(t, photos[0].ItemID)
		assert.Equal(t, "line-1", *photos[0].ItemID)
		assert.Nil(t, photos[1].ItemID)
	})
}
