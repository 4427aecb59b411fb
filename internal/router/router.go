package router

import (
	"time"

	"github.com/pavelplus/vetis-tools/internal/config"
	"github.com/pavelplus/vetis-tools/internal/handler"
	"github.com/pavelplus/vetis-tools/internal/infra"
	"github.com/pavelplus/vetis-tools/internal/middleware"
	"github.com/pavelplus/vetis-tools/internal/repository"
	"github.com/pavelplus/vetis-tools/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service/Dispatcher ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	besRepo := repository.NewBusinessEntityRepository(db)
	entsRepo := repository.NewEnterpriseRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	stockRepo := repository.NewStockRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ── Handlers ─────────────────────────────────────────────────────────────
	syncH := handler.NewSyncHandler(dispatcher)
	entitiesH := handler.NewEntitiesHandler(besRepo, entsRepo)
	catalogH := handler.NewCatalogHandler(catalogRepo)
	stockH := handler.NewStockHandler(stockRepo)
	historyH := handler.NewHistoryHandler(auditRepo)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb, cb))

	v1 := r.Group("/v1")
	{
		// Sync workflows — enqueued, executed on the worker pool
		v1.POST("/sync/:task", syncH.Trigger)
		v1.GET("/sync/jobs/:id", syncH.JobStatus)

		// Mirrored registry data (read-only)
		v1.GET("/business-entities", entitiesH.List)
		v1.GET("/business-entities/:id", entitiesH.Get)
		v1.GET("/business-entities/:id/enterprises", entitiesH.ListEnterprises)

		v1.GET("/products", catalogH.ListProducts)
		v1.GET("/sub-products", catalogH.ListSubProducts)
		v1.GET("/product-items", catalogH.ListProductItems)

		v1.GET("/stock-entries", stockH.List)
		v1.GET("/stock-entries/:id", stockH.Get)
		v1.GET("/stock-entries/mains/:guid", stockH.GetMain)
		v1.PUT("/stock-entries/mains/:guid/comment", stockH.UpdateComment)

		// Exchange audit log
		v1.GET("/registry/history", historyH.List)
		v1.GET("/registry/history/:id", historyH.Get)
	}

	return r
}
