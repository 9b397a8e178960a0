package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-intake/config"
	"github.com/kendall-kelly/order-intake/controllers"
	"github.com/kendall-kelly/order-intake/middleware"
	"github.com/kendall-kelly/order-intake/session"
	"github.com/kendall-kelly/order-intake/views"
	"go.uber.org/zap"
)

// New builds the engine serving the checkout pages and the JSON API
func New(cfg *config.Config, sessions session.Store) (*gin.Engine, error) {
	templates, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(zap.L()), middleware.Recovery(zap.L()))
	router.SetHTMLTemplate(templates)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, controllers.EntryPath)
	})

	orders := router.Group("/orders")
	orders.Use(session.Middleware(sessions, session.Options{
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
	}))
	{
		orders.GET("/new", controllers.NewOrder)
		orders.POST("/lines", controllers.EditOrderLines)
		orders.POST("/confirm", controllers.ConfirmOrder)
		orders.GET("/confirm", controllers.ShowConfirm)
		orders.POST("", controllers.BackToEntry)
		orders.POST("/complete", controllers.CompleteOrder)
		orders.GET("/complete", controllers.ShowComplete)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)
		v1.GET("/products", controllers.ListProducts)
		v1.GET("/payment_methods", controllers.ListPaymentMethods)
		v1.GET("/inflow_sources", controllers.ListInflowSources)
		v1.GET("/orders/:id", controllers.GetOrder)
	}

	return router, nil
}
