// Package reports provides read-only reporting projections.
package reports

import (
	"time"

	"stockward/internal/core/id"
	"stockward/internal/core/types"
)

// --- Dashboard ---

// DashboardSummary is the aggregate snapshot shown on the console
// landing page.
type DashboardSummary struct {
	ProductCount   int64 `json:"productCount"`
	WarehouseCount int64 `json:"warehouseCount"`

	DraftDocuments  int64 `json:"draftDocuments"`
	PostedDocuments int64 `json:"postedDocuments"`

	// PostedToday counts documents posted since local midnight UTC.
	PostedToday int64 `json:"postedToday"`

	// SKUsInStock counts distinct SKUs with a positive balance anywhere.
	SKUsInStock int64 `json:"skusInStock"`
}

// --- Low stock ---

// LowStockFilter defines filter for the low-stock listing.
type LowStockFilter struct {
	WarehouseID *id.ID
	Limit       int
	Offset      int
}

// LowStockItem is one balance at or below the product's min-stock
// threshold.
type LowStockItem struct {
	SKU           string         `json:"sku"`
	ProductName   string         `json:"productName"`
	WarehouseID   id.ID          `json:"warehouseId"`
	WarehouseName string         `json:"warehouseName"`
	OnHand        types.Quantity `json:"onHand"`
	MinStock      types.Quantity `json:"minStock"`
}

// LowStockReport lists balances that need replenishment.
type LowStockReport struct {
	Items      []LowStockItem `json:"items"`
	TotalItems int            `json:"totalItems"`
}

// --- Recent activity ---

// ActivityItem is one recent ledger entry enriched with catalog and
// document context for display.
type ActivityItem struct {
	EntryID       id.ID          `json:"entryId"`
	SKU           string         `json:"sku"`
	ProductName   string         `json:"productName"`
	WarehouseID   id.ID          `json:"warehouseId"`
	WarehouseName string         `json:"warehouseName"`
	DocID         id.ID          `json:"docId"`
	DocType       string         `json:"docType"`
	DocNumber     string         `json:"docNumber"`
	Delta         types.Quantity `json:"delta"`
	CreatedAt     time.Time      `json:"createdAt"`
}
