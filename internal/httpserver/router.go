package httpserver

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const customerHeader = "X-Customer-ID"

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger).Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store, logger))

	h := &cartHandler{carts: deps.Carts, logger: logger}
	carts := router.Group("/api/carts", requireCustomer())
	carts.POST("", h.create)
	carts.GET("", h.get)
	carts.DELETE("", h.delete)
	carts.POST("/items", h.addItem)
	carts.PATCH("/items/:productId", h.updateItemQuantity)
	carts.DELETE("/items/:productId", h.removeItem)
	carts.POST("/clear", h.clear)
	carts.PATCH("/archive", h.archive)
	carts.PATCH("/unarchive", h.unarchive)
	carts.POST("/promo/:code", h.applyPromoCode)
	carts.DELETE("/promo", h.removePromoCode)
	carts.POST("/checkout", h.checkout)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", customerHeader},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// requireCustomer rejects requests without a customer identity.
func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(customerHeader) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Status:  http.StatusUnauthorized,
				Error:   "MissingCustomer",
				Message: customerHeader + " header required",
			})
			return
		}
		c.Next()
	}
}
