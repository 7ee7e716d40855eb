package reports

import (
	"context"
	"fmt"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetDashboard returns the dashboard summary.
func (s *Service) GetDashboard(ctx context.Context) (*DashboardSummary, error) {
	summary, err := s.repo.GetDashboardSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("get dashboard summary: %w", err)
	}
	return summary, nil
}

// GetLowStock returns balances at or below their product's min-stock
// threshold.
func (s *Service) GetLowStock(ctx context.Context, filter LowStockFilter) (*LowStockReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetLowStock(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get low stock report: %w", err)
	}
	return report, nil
}

// GetRecentActivity returns the latest ledger entries enriched for
// display.
func (s *Service) GetRecentActivity(ctx context.Context, limit int) ([]ActivityItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	items, err := s.repo.GetRecentActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent activity: %w", err)
	}
	return items, nil
}
