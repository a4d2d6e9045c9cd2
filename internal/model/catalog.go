package model

// Catalog reference data. Read-only from the workflow's point of view; the
// catalog gateway resolves these, the engine never writes them.

type Supplier struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type CatalogItem struct {
	ID         string  `json:"id"`
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	UOM        string  `json:"uom"`
	Barcode    *string `json:"barcode,omitempty"`
	SupplierID string  `json:"supplier_id"`
	Category   string  `json:"category"`
}

// Location is a storage slot. DockDistance is the configured distance metric
// from the receiving dock used to rank empty slots.
type Location struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Zone         string  `json:"zone"`
	Capacity     float64 `json:"capacity"`
	UsedCapacity float64 `json:"used_capacity"`
	DockDistance float64 `json:"dock_distance"`
}

// Remaining returns the free capacity of the location.
func (l Location) Remaining() float64 {
	return l.Capacity - l.UsedCapacity
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}
