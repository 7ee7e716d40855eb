// Package v1 wires the HTTP API: it builds repositories, services and
// handlers from a RouterConfig and mounts them on a gin engine.
package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/numerator"
	"stockward/internal/domain"
	"stockward/internal/domain/auth"
	"stockward/internal/domain/catalogs/product"
	"stockward/internal/domain/catalogs/warehouse"
	"stockward/internal/domain/documents/stockdoc"
	"stockward/internal/domain/posting"
	"stockward/internal/domain/registers/ledger"
	"stockward/internal/domain/reports"
	"stockward/internal/infrastructure/http/v1/handlers"
	"stockward/internal/infrastructure/http/v1/middleware"
	"stockward/internal/infrastructure/storage/postgres"
	"stockward/internal/infrastructure/storage/postgres/catalog_repo"
	"stockward/internal/infrastructure/storage/postgres/document_repo"
	"stockward/internal/infrastructure/storage/postgres/register_repo"
	"stockward/internal/infrastructure/storage/postgres/report_repo"
	"stockward/pkg/logger"
)

// RouterConfig carries everything NewRouter needs to assemble the API.
type RouterConfig struct {
	// Pool is the database connection pool (health checks)
	Pool *postgres.Pool

	// TxManager manages transactions; repos and services share it
	TxManager *postgres.TxManager

	// Logger receives one line per request
	Logger *logger.Logger

	// JWTValidator verifies access tokens on protected routes
	JWTValidator middleware.JWTValidator

	// AuthService backs login, refresh and user administration
	AuthService *auth.Service

	// Numerator hands out document numbers on create
	Numerator numerator.Generator

	// Audit records entity changes to sys_audit (optional)
	Audit *postgres.AuditService

	// IdempotencyEnabled turns on replay protection for mutating requests
	IdempotencyEnabled bool

	// IdempotencyTTL is how long completed responses stay replayable
	IdempotencyTTL time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Recovery first, then tracing, so panics are logged with ids.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	healthHandler.RegisterRoutes(router.Group("/health"))

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		// Protected endpoints
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		// Idempotency middleware for mutating operations
		if cfg.IdempotencyEnabled {
			protected.Use(middleware.Idempotency(idempotencyStore(cfg)))
		}

		registerCatalogRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
		registerLedgerRoutes(protected, cfg)
		registerReportRoutes(protected, cfg)
		registerAuditRoutes(protected, cfg)
	}

	return router
}

func idempotencyStore(cfg RouterConfig) *postgres.IdempotencyStore {
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return postgres.NewIdempotencyStore(cfg.TxManager, ttl)
}

// registerAuthRoutes registers authentication and user administration
// endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required)
	publicAuth := rg.Group("/auth")

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	// User administration (JWT required; the admin check is registered by
	// the handler itself)
	users := rg.Group("/users")
	users.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.IdempotencyEnabled {
		users.Use(middleware.Idempotency(idempotencyStore(cfg)))
	}

	authHandler.RegisterRoutes(publicAuth, protectedAuth, users)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	{
		repo := catalog_repo.NewProductRepo(cfg.TxManager)
		service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
		registerAuditHooks(service.Hooks(), cfg.Audit, "product")
		handler := handlers.NewProductHandler(baseHandler, service)

		group := rg.Group("/products")
		group.GET("/by-sku/:sku", handler.GetBySKU)
		RegisterCatalogRoutes(group, handler)
	}

	{
		repo := catalog_repo.NewWarehouseRepo(cfg.TxManager)
		service := warehouse.NewService(repo, cfg.TxManager, cfg.Numerator)
		registerAuditHooks(service.Hooks(), cfg.Audit, "warehouse")
		handler := handlers.NewWarehouseHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/warehouses"), handler)
	}
}

// registerAuditHooks attaches audit logging to catalog lifecycle events.
// Audit failures do not fail the operation; after-hooks run outside the
// transaction and their errors are dropped by the service.
func registerAuditHooks[T interface {
	entity.Validatable
	GetID() id.ID
}](hooks *domain.HookRegistry[T], audit *postgres.AuditService, entityType string) {
	if audit == nil {
		return
	}

	log := func(action postgres.AuditAction) domain.Hook[T] {
		return func(ctx context.Context, e T) error {
			return audit.LogChange(ctx, entityType, e.GetID(), action, nil)
		}
	}

	hooks.On(domain.AfterCreate, log(postgres.AuditActionCreate))
	hooks.On(domain.AfterUpdate, log(postgres.AuditActionUpdate))
	hooks.On(domain.AfterDelete, log(postgres.AuditActionDelete))
}

// registerDocumentRoutes registers stock document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	// The posting engine resolves SKUs against the product catalog and
	// writes through the ledger repo; everything shares the TxManager so
	// a posting runs as one transaction.
	ledgerRepo := register_repo.NewLedgerRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	postingEngine := posting.NewEngine(ledgerRepo, productRepo, cfg.TxManager)

	docRepo := document_repo.NewStockDocumentRepo(cfg.TxManager)
	docService := stockdoc.NewService(docRepo, postingEngine, cfg.Numerator, cfg.TxManager)
	ledgerService := ledger.NewService(ledgerRepo)

	handler := handlers.NewStockDocumentHandler(baseHandler, docService, ledgerService, cfg.Audit)
	handler.RegisterRoutes(rg.Group("/documents"))
}

// registerLedgerRoutes registers ledger register endpoints (read-only).
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	ledgerRepo := register_repo.NewLedgerRepo(cfg.TxManager)
	ledgerService := ledger.NewService(ledgerRepo)

	handler := handlers.NewLedgerHandler(baseHandler, ledgerService)
	handler.RegisterRoutes(rg.Group("/ledger"))
}

// registerAuditRoutes registers the audit trail endpoint (admin only).
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}

	handler := handlers.NewAuditHandler(handlers.NewBaseHandler(), cfg.Audit)

	group := rg.Group("/audit")
	group.Use(middleware.RequireAdmin())
	handler.RegisterRoutes(group)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	reportRepo := report_repo.NewReportRepo(cfg.TxManager)
	reportService := reports.NewService(reportRepo)

	handler := handlers.NewReportsHandler(baseHandler, reportService)
	handler.RegisterRoutes(rg.Group("/reports"))
}
