package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id     UUID    PRIMARY KEY DEFAULT uuid_generate_v4(),
  name   TEXT    NOT NULL,
  role   TEXT    NOT NULL,
  active BOOLEAN NOT NULL DEFAULT true
);`,
	},
	{
		Name: "create_table_suppliers",
		SQL: `CREATE TABLE IF NOT EXISTS suppliers (
  id     UUID    PRIMARY KEY DEFAULT uuid_generate_v4(),
  name   TEXT    NOT NULL,
  active BOOLEAN NOT NULL DEFAULT true
);`,
	},
	{
		Name: "create_table_catalog_items",
		SQL: `CREATE TABLE IF NOT EXISTS catalog_items (
  id          UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  sku         TEXT NOT NULL UNIQUE,
  name        TEXT NOT NULL,
  uom         TEXT NOT NULL DEFAULT 'kom',
  barcode     TEXT,
  supplier_id UUID REFERENCES suppliers (id),
  category    TEXT NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_table_locations",
		SQL: `CREATE TABLE IF NOT EXISTS locations (
  id            UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  code          TEXT             NOT NULL UNIQUE,
  zone          TEXT             NOT NULL,
  capacity      DOUBLE PRECISION NOT NULL CHECK (capacity >= 0),
  used_capacity DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (used_capacity >= 0),
  dock_distance DOUBLE PRECISION NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_table_stock_levels",
		SQL: `CREATE TABLE IF NOT EXISTS stock_levels (
  location_id UUID             NOT NULL REFERENCES locations (id),
  item_id     UUID             NOT NULL REFERENCES catalog_items (id),
  quantity    DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (location_id, item_id)
);`,
	},
	{
		Name: "create_table_receiving_documents",
		SQL: `CREATE TABLE IF NOT EXISTS receiving_documents (
  id                      UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_number         TEXT        NOT NULL UNIQUE,
  supplier_id             UUID        NOT NULL REFERENCES suppliers (id),
  invoice_number          TEXT        NOT NULL DEFAULT '',
  pantheon_invoice_number TEXT        NOT NULL DEFAULT '',
  status                  TEXT        NOT NULL DEFAULT 'DRAFT',
  assigned_to             UUID        REFERENCES users (id),
  created_by              UUID        NOT NULL,
  hold_reason             TEXT,
  notes                   TEXT        NOT NULL DEFAULT '',
  store_name              TEXT        NOT NULL DEFAULT '',
  responsible_person      TEXT        NOT NULL DEFAULT '',
  document_date           TIMESTAMPTZ,
  created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
  started_at              TIMESTAMPTZ,
  completed_at            TIMESTAMPTZ
);`,
	},
	{
		Name: "create_table_receiving_items",
		SQL: `CREATE TABLE IF NOT EXISTS receiving_items (
  id                UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id       UUID             NOT NULL REFERENCES receiving_documents (id) ON DELETE CASCADE,
  item_id           UUID             NOT NULL REFERENCES catalog_items (id),
  barcode           TEXT,
  expected_quantity DOUBLE PRECISION NOT NULL CHECK (expected_quantity >= 0),
  received_quantity DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (received_quantity >= 0),
  status            TEXT             NOT NULL DEFAULT 'PENDING',
  location_id       UUID             REFERENCES locations (id),
  pallet_id         TEXT,
  condition_notes   TEXT,
  UNIQUE (document_id, item_id)
);`,
	},
	{
		Name: "create_table_receiving_photos",
		SQL: `CREATE TABLE IF NOT EXISTS receiving_photos (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL REFERENCES receiving_documents (id) ON DELETE CASCADE,
  item_id     UUID        REFERENCES receiving_items (id) ON DELETE CASCADE,
  photo_url   TEXT        NOT NULL,
  caption     TEXT,
  uploaded_by UUID        NOT NULL,
  uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_receiving_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_receiving_documents_status ON receiving_documents (status);`,
	},
	{
		Name: "create_index_receiving_documents_assigned_to",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_receiving_documents_assigned_to ON receiving_documents (assigned_to);`,
	},
	{
		Name: "create_index_receiving_items_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_receiving_items_document_id ON receiving_items (document_id);`,
	},
	{
		Name: "create_index_receiving_photos_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_receiving_photos_document_id ON receiving_photos (document_id);`,
	},
}

// EnsureMigrated checks if the 'receiving_documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.receiving_documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
