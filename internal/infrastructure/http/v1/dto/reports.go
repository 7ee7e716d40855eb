package dto

import (
	"time"

	"stockward/internal/domain/reports"
)

// --- Response DTOs for reports ---

// DashboardResponse carries the landing-page counters.
type DashboardResponse struct {
	ProductCount    int64 `json:"productCount"`
	WarehouseCount  int64 `json:"warehouseCount"`
	DraftDocuments  int64 `json:"draftDocuments"`
	PostedDocuments int64 `json:"postedDocuments"`
	PostedToday     int64 `json:"postedToday"`
	SKUsInStock     int64 `json:"skusInStock"`
}

// FromDashboardSummary converts domain summary to response DTO.
func FromDashboardSummary(s *reports.DashboardSummary) *DashboardResponse {
	return &DashboardResponse{
		ProductCount:    s.ProductCount,
		WarehouseCount:  s.WarehouseCount,
		DraftDocuments:  s.DraftDocuments,
		PostedDocuments: s.PostedDocuments,
		PostedToday:     s.PostedToday,
		SKUsInStock:     s.SKUsInStock,
	}
}

// LowStockItemResponse is one row of the low-stock report.
type LowStockItemResponse struct {
	SKU           string `json:"sku"`
	ProductName   string `json:"productName"`
	WarehouseID   string `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	OnHand        int64  `json:"onHand"`
	MinStock      int64  `json:"minStock"`
}

// LowStockResponse is the low-stock report.
type LowStockResponse struct {
	Items      []LowStockItemResponse `json:"items"`
	TotalItems int                    `json:"totalItems"`
}

// FromLowStockReport converts domain report to response DTO.
func FromLowStockReport(r *reports.LowStockReport) *LowStockResponse {
	items := make([]LowStockItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = LowStockItemResponse{
			SKU:           item.SKU,
			ProductName:   item.ProductName,
			WarehouseID:   item.WarehouseID.String(),
			WarehouseName: item.WarehouseName,
			OnHand:        item.OnHand.Int64(),
			MinStock:      item.MinStock.Int64(),
		}
	}
	return &LowStockResponse{
		Items:      items,
		TotalItems: r.TotalItems,
	}
}

// ActivityItemResponse is one row of the recent-activity feed.
type ActivityItemResponse struct {
	EntryID       string    `json:"entryId"`
	SKU           string    `json:"sku"`
	ProductName   string    `json:"productName,omitempty"`
	WarehouseID   string    `json:"warehouseId"`
	WarehouseName string    `json:"warehouseName,omitempty"`
	DocID         string    `json:"docId"`
	DocType       string    `json:"docType"`
	DocNumber     string    `json:"docNumber,omitempty"`
	Delta         int64     `json:"delta"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FromActivityItems converts domain activity items to response DTOs.
func FromActivityItems(items []reports.ActivityItem) []ActivityItemResponse {
	out := make([]ActivityItemResponse, len(items))
	for i, item := range items {
		out[i] = ActivityItemResponse{
			EntryID:       item.EntryID.String(),
			SKU:           item.SKU,
			ProductName:   item.ProductName,
			WarehouseID:   item.WarehouseID.String(),
			WarehouseName: item.WarehouseName,
			DocID:         item.DocID.String(),
			DocType:       item.DocType,
			DocNumber:     item.DocNumber,
			Delta:         item.Delta.Int64(),
			CreatedAt:     item.CreatedAt,
		}
	}
	return out
}

// ActivityResponse is the recent-activity feed.
type ActivityResponse struct {
	Items []ActivityItemResponse `json:"items"`
}
