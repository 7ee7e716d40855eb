package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	GetDashboardSummary(ctx context.Context) (*DashboardSummary, error)
	GetLowStock(ctx context.Context, filter LowStockFilter) (*LowStockReport, error)
	GetRecentActivity(ctx context.Context, limit int) ([]ActivityItem, error)
}
