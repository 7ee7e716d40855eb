package dto

// ListResponse wraps one page of results with the unpaginated total.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// SuccessResponse is the body for operations that return no data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SetDeletionMarkRequest sets or clears an entity's deletion mark.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}
