package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditReader interface {
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*repository.AuditLog, error)
}

// Services bundles everything the HTTP handlers call into.
type Services struct {
	Accounts  *service.AccountService
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	Customers *service.CustomerService
	Content   *service.ContentService
	Tokens    TokenVerifier
	Audit     AuditReader
	Health    func(ctx context.Context) error
}

type Gateway struct {
	config    *config.Config
	svc       Services
	logger    *zap.Logger
	router    *gin.Engine
	limiter   *ipLimiter
	maxUpload int64
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(cors.New(corsConfig(cfg.Server.AllowOrigins)))

	maxUpload := cfg.Limits.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}

	g := &Gateway{
		config:    cfg,
		svc:       svc,
		logger:    logger.Named("gateway"),
		router:    router,
		limiter:   newIPLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst),
		maxUpload: maxUpload,
	}
	g.setupRoutes()
	return g
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func (g *Gateway) setupRoutes() {
	r := g.router
	admin := g.requireRole(auth.RoleAdmin)
	user := g.requireRole(auth.RoleUser)
	limited := g.limiter.middleware()
	upload := g.uploadLimit()

	r.GET("/health", g.health)

	// Admin accounts and store profile
	r.POST("/admin/register", limited, g.registerAdmin)
	r.POST("/admin/login", limited, g.loginAdmin)
	adminAcct := r.Group("/admin", admin)
	{
		adminAcct.PUT("/change-password", g.changePassword)
		adminAcct.PUT("/device-token", g.setDeviceToken)
	}
	store := r.Group("/store", admin)
	{
		store.GET("", g.getStore)
		store.POST("/save", g.saveStore)
		store.PUT("/logo", upload, g.updateStoreLogo)
	}

	// Catalog
	category := r.Group("/category", admin)
	{
		category.POST("", upload, g.createCategory)
		category.GET("", g.listCategories)
		category.GET("/:id", g.getCategory)
		category.PUT("/:id", upload, g.updateCategory)
		category.DELETE("/:id/image", g.removeCategoryImage)
		category.DELETE("/:id", g.deleteCategory)
	}
	subcategory := r.Group("/subcategory", admin)
	{
		subcategory.POST("/add", g.createSubcategory)
		subcategory.GET("/all", g.listSubcategories)
		subcategory.GET("/byCategory/:categoryId", g.listSubcategories)
		subcategory.PUT("/update/:id", g.updateSubcategory)
		subcategory.DELETE("/delete/:id", g.deleteSubcategory)
	}
	products := r.Group("/products", admin)
	{
		products.POST("/add", g.createProduct)
		products.POST("/image", upload, g.setProductImage)
		products.GET("/all", g.listProducts)
		products.GET("/:id", g.getProduct)
		products.PUT("/:id", g.updateProduct)
		products.DELETE("/:id", g.deleteProduct)
	}
	r.GET("/search/products", g.searchProducts)
	r.GET("/search/adminproducts", admin, g.searchProducts)

	// Mobile app
	mobile := r.Group("/mobile")
	{
		mobile.GET("/category", g.listCategories)
		mobile.GET("/products/all", g.listProducts)
		mobile.GET("/products/group-by-category", g.groupByCategory)
		mobile.GET("/products/by-category/:categoryId", g.productsByCategory)
		mobile.GET("/products/:id", g.getProduct)
		mobile.GET("/settings/:storeId", g.storeSettings)

		mobile.POST("/auth/check-email", g.checkEmail)
		mobile.POST("/auth/mobile-signup", limited, g.mobileSignup)
		mobile.GET("/auth/profile", user, g.getProfile)
		mobile.PUT("/auth/profile", user, g.updateProfile)

		mobile.POST("/orders/create-order", user, g.createPaymentIntent)
		mobile.POST("/orders/verify-payment", user, g.verifyPayment)
		mobile.POST("/orders/place-cod-order", user, g.placeCODOrder)
		mobile.GET("/orders/my-orders", user, g.myOrders)
		mobile.PUT("/orders/update-status", admin, g.updateOrderStatus)
	}

	// Admin order desk
	orders := r.Group("/orders", admin)
	{
		orders.GET("/orderlist", g.listOrders)
		orders.GET("/:id", g.getOrder)
		orders.PUT("/:id/tracking", g.updateTracking)
	}
	r.GET("/audit/:entityId", admin, g.auditTrail)

	customers := r.Group("/customer", admin)
	{
		customers.POST("/register", g.registerCustomer)
		customers.GET("", g.listCustomers)
		customers.GET("/:id", g.getCustomer)
		customers.PUT("/:id", g.updateCustomer)
		customers.DELETE("/:id", g.deleteCustomer)
	}

	settings := r.Group("/settings", admin)
	{
		settings.POST("", g.saveSettings)
		settings.GET("", g.getSettings)
		settings.PUT("/delivery-settings", g.saveDelivery)
	}
	banners := r.Group("/banner", admin)
	{
		banners.POST("", upload, g.addBanner)
		banners.GET("", g.listBanners)
		banners.DELETE("/:id", g.deleteBanner)
	}
}

func (g *Gateway) health(c *gin.Context) {
	if g.svc.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := g.svc.Health(ctx); err != nil {
			g.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (g *Gateway) auditTrail(c *gin.Context) {
	if g.svc.Audit == nil {
		respond(c, http.StatusOK, "Audit log", []*repository.AuditLog{})
		return
	}
	logs, err := g.svc.Audit.GetAuditLogs(c.Request.Context(), c.Param("entityId"), 50)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Audit log", logs)
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
