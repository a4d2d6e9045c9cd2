// Package catalog is the read-only gateway to reference data: suppliers,
// items, storage locations and the user directory. The workflow engine
// resolves references through it and never writes to it.
package catalog

import (
	"context"

	"receivingapi/internal/model"
)

// Gateway exposes the lookups the engine and the location recommender need.
// Implementations return sql.ErrNoRows-style errors for unknown ids; the
// service layer translates those into the error taxonomy.
type Gateway interface {
	ResolveSupplier(ctx context.Context, id string) (*model.Supplier, error)
	ResolveItem(ctx context.Context, id string) (*model.CatalogItem, error)
	ResolveLocation(ctx context.Context, id string) (*model.Location, error)
	ResolveUser(ctx context.Context, id string) (*model.User, error)

	// FindItemBySKU resolves a catalog item by its SKU, used when importing
	// spreadsheets that reference items by SKU rather than id.
	FindItemBySKU(ctx context.Context, sku string) (*model.CatalogItem, error)

	// StockLocations returns locations already holding stock of the item,
	// ordered by remaining capacity descending.
	StockLocations(ctx context.Context, itemID string) ([]model.Location, error)

	// AffinityZones returns zones holding stock of related items (same
	// supplier or same category), for zone-affinity putaway.
	AffinityZones(ctx context.Context, itemID string) ([]string, error)

	// EmptyLocations returns locations with no stock and capacity > 0,
	// ordered by distance from the receiving dock.
	EmptyLocations(ctx context.Context) ([]model.Location, error)
}
