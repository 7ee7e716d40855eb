// Package audit stamps the acting user onto entity audit fields.
package audit

import (
	"context"

	appctx "stockward/internal/core/context"
)

// EnrichCreatedByDirect sets both created-by and updated-by to the
// context user. No-op without an authenticated user (seeding).
func EnrichCreatedByDirect(ctx context.Context, createdBy, updatedBy *string) {
	userID := appctx.GetUserID(ctx)
	if userID != "" && createdBy != nil && updatedBy != nil {
		*createdBy = userID
		*updatedBy = userID
	}
}

// EnrichUpdatedByDirect sets updated-by to the context user.
func EnrichUpdatedByDirect(ctx context.Context, updatedBy *string) {
	userID := appctx.GetUserID(ctx)
	if userID != "" && updatedBy != nil {
		*updatedBy = userID
	}
}
