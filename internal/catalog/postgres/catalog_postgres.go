package postgres

import (
	"context"
	"database/sql"

	"receivingapi/internal/catalog"
	"receivingapi/internal/model"
)

// CatalogPostgres is a PostgreSQL implementation of catalog.Gateway.
// Strictly read-only lookups; the workflow never writes reference data.
type CatalogPostgres struct {
	db *sql.DB
}

// NewCatalogPostgres creates a new CatalogPostgres gateway.
func NewCatalogPostgres(db *sql.DB) *CatalogPostgres {
	return &CatalogPostgres{db: db}
}

var _ catalog.Gateway = (*CatalogPostgres)(nil)

// ResolveSupplier fetches a supplier by ID.
func (c *CatalogPostgres) ResolveSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	const q = `SELECT id, name, active FROM suppliers WHERE id = $1`
	var s model.Supplier
	if err := c.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.Active); err != nil {
		return nil, err
	}
	return &s, nil
}

// ResolveItem fetches a catalog item by ID.
func (c *CatalogPostgres) ResolveItem(ctx context.Context, id string) (*model.CatalogItem, error) {
	const q = `SELECT id, sku, name, uom, barcode, supplier_id, category FROM catalog_items WHERE id = $1`
	var (
		it         model.CatalogItem
		barcode    sql.NullString
		supplierID sql.NullString
	)
	if err := c.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.SKU, &it.Name, &it.UOM, &barcode, &supplierID, &it.Category,
	); err != nil {
		return nil, err
	}
	if barcode.Valid {
		it.Barcode = &barcode.String
	}
	it.SupplierID = supplierID.String
	return &it, nil
}

// FindItemBySKU fetches a catalog item by its unique SKU.
func (c *CatalogPostgres) FindItemBySKU(ctx context.Context, sku string) (*model.CatalogItem, error) {
	const q = `SELECT id, sku, name, uom, barcode, supplier_id, category FROM catalog_items WHERE sku = $1`
	var (
		it         model.CatalogItem
		barcode    sql.NullString
		supplierID sql.NullString
	)
	if err := c.db.QueryRowContext(ctx, q, sku).Scan(
		&it.ID, &it.SKU, &it.Name, &it.UOM, &barcode, &supplierID, &it.Category,
	); err != nil {
		return nil, err
	}
	if barcode.Valid {
		it.Barcode = &barcode.String
	}
	it.SupplierID = supplierID.String
	return &it, nil
}

// ResolveLocation fetches a storage location by ID.
func (c *CatalogPostgres) ResolveLocation(ctx context.Context, id string) (*model.Location, error) {
	const q = `SELECT id, code, zone, capacity, used_capacity, dock_distance FROM locations WHERE id = $1`
	var l model.Location
	if err := c.db.QueryRowContext(ctx, q, id).Scan(
		&l.ID, &l.Code, &l.Zone, &l.Capacity, &l.UsedCapacity, &l.DockDistance,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

// ResolveUser fetches a user by ID.
func (c *CatalogPostgres) ResolveUser(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, name, role, active FROM users WHERE id = $1`
	var (
		u    model.User
		role string
	)
	if err := c.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name, &role, &u.Active); err != nil {
		return nil, err
	}
	u.Role = model.NormalizeRole(role)
	return &u, nil
}

// StockLocations returns locations already holding stock of the item, most
// free capacity first.
func (c *CatalogPostgres) StockLocations(ctx context.Context, itemID string) ([]model.Location, error) {
	const q = `
		SELECT l.id, l.code, l.zone, l.capacity, l.used_capacity, l.dock_distance
		FROM locations l
		JOIN stock_levels s ON s.location_id = l.id
		WHERE s.item_id = $1 AND s.quantity > 0
		ORDER BY (l.capacity - l.used_capacity) DESC, l.dock_distance ASC
	`
	return c.queryLocations(ctx, q, itemID)
}

// AffinityZones returns zones holding stock of items sharing the supplier or
// category of the given item.
func (c *CatalogPostgres) AffinityZones(ctx context.Context, itemID string) ([]string, error) {
	const q = `
		SELECT DISTINCT l.zone
		FROM locations l
		JOIN stock_levels s ON s.location_id = l.id
		JOIN catalog_items rel ON rel.id = s.item_id
		JOIN catalog_items src ON src.id = $1
		WHERE s.quantity > 0
		  AND rel.id <> src.id
		  AND (rel.supplier_id = src.supplier_id OR (rel.category <> '' AND rel.category = src.category))
		ORDER BY l.zone
	`
	rows, err := c.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	zones := make([]string, 0)
	for rows.Next() {
		var z string
		if err := rows.Scan(&z); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// EmptyLocations returns slots with no stock and free capacity, nearest to
// the receiving dock first.
func (c *CatalogPostgres) EmptyLocations(ctx context.Context) ([]model.Location, error) {
	const q = `
		SELECT l.id, l.code, l.zone, l.capacity, l.used_capacity, l.dock_distance
		FROM locations l
		WHERE l.capacity - l.used_capacity > 0
		  AND NOT EXISTS (
			SELECT 1 FROM stock_levels s WHERE s.location_id = l.id AND s.quantity > 0
		  )
		ORDER BY l.dock_distance ASC, l.code ASC
	`
	return c.queryLocations(ctx, q)
}

func (c *CatalogPostgres) queryLocations(ctx context.Context, q string, args ...any) ([]model.Location, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locs := make([]model.Location, 0)
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Zone, &l.Capacity, &l.UsedCapacity, &l.DockDistance); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}
