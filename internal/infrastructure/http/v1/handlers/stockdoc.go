package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockward/internal/core/apperror"
	"stockward/internal/core/id"
	"stockward/internal/domain/documents/stockdoc"
	"stockward/internal/domain/posting"
	"stockward/internal/domain/registers/ledger"
	"stockward/internal/infrastructure/http/v1/dto"
	"stockward/internal/infrastructure/storage/postgres"
)

// StockDocumentHandler handles HTTP requests for stock documents.
type StockDocumentHandler struct {
	*BaseHandler
	service   *stockdoc.Service
	ledgerSvc *ledger.Service
	audit     *postgres.AuditService
}

// NewStockDocumentHandler creates a new stock document handler. The audit
// service is optional; pass nil to disable audit logging.
func NewStockDocumentHandler(base *BaseHandler, service *stockdoc.Service, ledgerSvc *ledger.Service, audit *postgres.AuditService) *StockDocumentHandler {
	return &StockDocumentHandler{
		BaseHandler: base,
		service:     service,
		ledgerSvc:   ledgerSvc,
		audit:       audit,
	}
}

// logAudit records an audit entry. Audit failures are not surfaced to the
// client; the business operation already succeeded.
func (h *StockDocumentHandler) logAudit(c *gin.Context, doc *stockdoc.Document, action postgres.AuditAction) {
	if h.audit == nil {
		return
	}
	changes := map[string]any{
		"number": doc.Number,
		"type":   string(doc.Type),
		"status": string(doc.Status),
	}
	if len(doc.Lines) > 0 {
		lines := make([]map[string]any, len(doc.Lines))
		for i, ln := range doc.Lines {
			lines[i] = map[string]any{"sku": ln.SKU, "quantity": ln.Quantity}
		}
		changes["lines"] = lines
	}
	_ = h.audit.LogChange(c.Request.Context(), "stock_document", doc.ID, action, changes)
}

// auditState is the snapshot of mutable document fields used to diff
// updates.
func auditState(doc *stockdoc.Document) map[string]any {
	lines := make([]map[string]any, len(doc.Lines))
	for i, ln := range doc.Lines {
		lines[i] = map[string]any{"sku": ln.SKU, "quantity": ln.Quantity, "note": ln.Note}
	}
	return map[string]any{
		"number":  doc.Number,
		"date":    doc.Date,
		"comment": doc.Comment,
		"lines":   lines,
	}
}

// List handles GET /documents
func (h *StockDocumentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stockdoc.ListFilter{}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if typeStr := c.Query("type"); typeStr != "" {
		docType := posting.DocType(typeStr)
		if !docType.Valid() {
			h.Error(c, apperror.NewValidation("unknown document type").WithDetail("type", typeStr))
			return
		}
		filter.Type = &docType
	}

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	if whStr := c.Query("warehouseId"); whStr != "" {
		warehouseID, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = &warehouseID
	}

	if fromStr := c.Query("dateFrom"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if toStr := c.Query("dateTo"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.StockDocumentResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromStockDocument(doc)
	}

	c.JSON(http.StatusOK, dto.StockDocumentListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /documents/:id
func (h *StockDocumentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockDocument(doc))
}

// GetByNumber handles GET /documents/by-number/:number
func (h *StockDocumentHandler) GetByNumber(c *gin.Context) {
	ctx := c.Request.Context()

	doc, err := h.service.GetByNumber(ctx, c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockDocument(doc))
}

// Create handles POST /documents
// With postImmediately the draft is saved first, then posted: a posting
// failure leaves the draft behind for correction.
func (h *StockDocumentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateStockDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity()

	if req.PostImmediately {
		if err := h.service.PostAndSave(ctx, doc); err != nil {
			h.Error(c, err)
			return
		}
		// Re-read so the response reflects the posted state.
		posted, err := h.service.GetByID(ctx, doc.ID)
		if err != nil {
			h.Error(c, err)
			return
		}
		doc = posted
	} else {
		if err := h.service.Create(ctx, doc); err != nil {
			h.Error(c, err)
			return
		}
	}

	if req.PostImmediately {
		h.logAudit(c, doc, postgres.AuditActionPost)
	} else {
		h.logAudit(c, doc, postgres.AuditActionCreate)
	}

	response := dto.FromStockDocument(doc)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Update handles PUT /documents/:id
func (h *StockDocumentHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateStockDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	before := auditState(doc)
	req.ApplyTo(doc)

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.LogChange(ctx, "stock_document", doc.ID, postgres.AuditActionUpdate, postgres.Diff(before, auditState(doc)))
	}

	response := dto.FromStockDocument(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /documents/:id
func (h *StockDocumentHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Delete(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, doc, postgres.AuditActionDelete)

	c.Status(http.StatusNoContent)
}

// Post handles POST /documents/:id/post
func (h *StockDocumentHandler) Post(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Post(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, doc, postgres.AuditActionPost)

	response := dto.FromStockDocument(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// GetEntries handles GET /documents/:id/entries - the ledger entries a
// posting wrote.
func (h *StockDocumentHandler) GetEntries(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	entries, err := h.ledgerSvc.GetDocumentEntries(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = dto.FromLedgerEntry(e)
	}

	c.JSON(http.StatusOK, dto.LedgerEntryListResponse{
		Items:      items,
		TotalCount: int64(len(items)),
	})
}

// RegisterRoutes registers stock document routes.
func (h *StockDocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/by-number/:number", h.GetByNumber)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/post", h.Post)
	rg.GET("/:id/entries", h.GetEntries)
}
