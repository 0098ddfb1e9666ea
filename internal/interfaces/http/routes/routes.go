// internal/interfaces/http/routes/routes.go
package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/auth"
	"github.com/your-org/storefront-core/internal/domain/catalog"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// Dependencies are the services the routes are wired to
type Dependencies struct {
	Stores         storage.Factory
	Catalog        *catalog.Service
	AuthSource     auth.Source
	Checkout       *checkout.Service
	Logger         *logrus.Logger
	RequestTimeout time.Duration
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Stores, deps.AuthSource, deps.Checkout, deps.Logger)

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/status", authHandler.GetStatus)
	}
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, deps Dependencies) {
	productHandler := handlers.NewProductHandler(deps.Catalog, deps.Logger)

	rg.GET("/products", productHandler.GetProducts)
	rg.GET("/products/:id", productHandler.GetProduct)
	rg.GET("/categories", productHandler.GetCategories)
}

// SetupCartRoutes sets up cart, coupon and checkout routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.Stores, deps.Catalog, deps.Logger)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Stores, deps.Checkout, deps.Logger)

	cartGroup := rg.Group("/cart")
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
		cartGroup.GET("/count", cartHandler.GetCartCount)
		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.PUT("/items/:id", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveFromCart)
		cartGroup.POST("/coupon", checkoutHandler.ApplyCoupon)
		cartGroup.GET("/summary", checkoutHandler.GetSummary)
	}

	rg.POST("/checkout", checkoutHandler.Checkout)
}

// SetupRoutes wires every API route. Catalog and cart views require a token,
// like the protected pages of the storefront. The event stream is long-lived
// and stays outside the request timeout.
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	rg.Use(middleware.Session())

	timed := rg.Group("")
	timed.Use(middleware.Timeout(deps.RequestTimeout))
	SetupAuthRoutes(timed, deps)

	protected := timed.Group("")
	protected.Use(middleware.RequireToken(deps.Stores, deps.Logger))
	SetupProductRoutes(protected, deps)
	SetupCartRoutes(protected, deps)

	eventsHandler := handlers.NewEventsHandler(deps.Stores, deps.Logger)
	rg.GET("/events", middleware.RequireToken(deps.Stores, deps.Logger), eventsHandler.Stream)
}
