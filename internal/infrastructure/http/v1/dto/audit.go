package dto

import (
	"encoding/json"
	"time"

	"stockward/internal/infrastructure/storage/postgres"
)

// AuditEntryResponse represents one audit trail entry. Changes are
// returned decompressed regardless of how they are stored.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	UserID     string          `json:"userId,omitempty"`
	UserEmail  string          `json:"userEmail,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FromAuditEntry converts a storage entry to a response DTO.
func FromAuditEntry(e postgres.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID.String(),
		Action:     string(e.Action),
		UserID:     e.UserID,
		UserEmail:  e.UserEmail,
		Changes:    e.Changes,
		CreatedAt:  e.CreatedAt,
	}
}

// AuditEntryListResponse represents an entity's audit history.
type AuditEntryListResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	TotalCount int64                `json:"totalCount"`
}
