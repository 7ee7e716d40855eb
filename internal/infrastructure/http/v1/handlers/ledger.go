package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockward/internal/core/apperror"
	"stockward/internal/core/id"
	"stockward/internal/domain/registers/ledger"
	"stockward/internal/infrastructure/http/v1/dto"
	"stockward/internal/infrastructure/http/v1/middleware"
)

// LedgerHandler handles HTTP requests for the ledger register: balances,
// entry history and turnover. Read-only by design; writes happen only
// through document posting.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger register handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetBalances handles GET /ledger/balances
func (h *LedgerHandler) GetBalances(c *gin.Context) {
	ctx := c.Request.Context()

	filter := ledger.BalanceFilter{
		ExcludeZero: c.Query("excludeZero") == "true",
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	if whStr := c.Query("warehouseId"); whStr != "" {
		warehouseID, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = &warehouseID
	}

	if sku := c.Query("sku"); sku != "" {
		filter.SKUs = []string{sku}
	}

	balances, total, err := h.service.ListBalances(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.BalanceResponse, len(balances))
	for i, b := range balances {
		items[i] = dto.FromBalance(b)
	}

	c.JSON(http.StatusOK, dto.BalanceListResponse{
		Items:      items,
		TotalCount: total,
	})
}

// GetBalance handles GET /ledger/balances/:warehouseId/:sku
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	balance, err := h.service.GetBalance(ctx, c.Param("sku"), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromBalance(balance))
}

// GetEntries handles GET /ledger/entries
func (h *LedgerHandler) GetEntries(c *gin.Context) {
	ctx := c.Request.Context()

	filter := ledger.EntryFilter{
		SKU:     c.Query("sku"),
		DocType: c.Query("docType"),
		Limit:   h.ParseIntQuery(c, "limit", 100),
		Offset:  h.ParseIntQuery(c, "offset", 0),
	}

	if whStr := c.Query("warehouseId"); whStr != "" {
		warehouseID, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = &warehouseID
	}

	if docStr := c.Query("docId"); docStr != "" {
		docID, err := id.Parse(docStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid docId format"))
			return
		}
		filter.DocID = &docID
	}

	if fromStr := c.Query("fromDate"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.FromDate = &parsed
		}
	}
	if toStr := c.Query("toDate"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, total, err := h.service.ListEntries(ctx, filter)
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
		TotalCount: total,
	})
}

// GetHistory handles GET /ledger/history/:warehouseId/:sku
func (h *LedgerHandler) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	filter := ledger.HistoryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if fromStr := c.Query("fromDate"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.FromDate = &parsed
		}
	}
	if toStr := c.Query("toDate"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, err := h.service.GetHistory(ctx, c.Param("sku"), warehouseID, filter)
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

// GetTurnover handles GET /ledger/turnover
func (h *LedgerHandler) GetTurnover(c *gin.Context) {
	ctx := c.Request.Context()

	fromStr := c.Query("fromDate")
	toStr := c.Query("toDate")
	if fromStr == "" || toStr == "" {
		h.Error(c, apperror.NewValidation("fromDate and toDate are required"))
		return
	}

	fromDate, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
		return
	}

	toDate, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
		return
	}

	filter := ledger.TurnoverFilter{
		SKU:      c.Query("sku"),
		FromDate: fromDate,
		ToDate:   toDate,
	}

	if whStr := c.Query("warehouseId"); whStr != "" {
		warehouseID, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = &warehouseID
	}

	turnover, err := h.service.GetTurnover(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTurnover(turnover))
}

// VerifyBalance handles GET /ledger/verify/:warehouseId/:sku - admin
// consistency check: materialized balance vs sum of deltas.
func (h *LedgerHandler) VerifyBalance(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	sku := c.Param("sku")
	onHand, deltaSum, ok, err := h.service.VerifyBalance(ctx, sku, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceCheckResponse{
		SKU:         sku,
		WarehouseID: warehouseID.String(),
		OnHand:      onHand.Int64(),
		DeltaSum:    deltaSum.Int64(),
		Consistent:  ok,
	})
}

// RegisterRoutes registers ledger register routes.
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/balances", h.GetBalances)
	rg.GET("/balances/:warehouseId/:sku", h.GetBalance)
	rg.GET("/entries", h.GetEntries)
	rg.GET("/history/:warehouseId/:sku", h.GetHistory)
	rg.GET("/turnover", h.GetTurnover)
	rg.GET("/verify/:warehouseId/:sku", middleware.RequireAdmin(), h.VerifyBalance)
}
