package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-intake/models"
	"github.com/kendall-kelly/order-intake/services"
	"go.uber.org/zap"
)

// OrderResponse is an order as returned by the API, with its computed total
type OrderResponse struct {
	*models.Order
	InflowSourceIDs []uint `json:"inflow_source_ids"`
	TotalPrice      int64  `json:"total_price"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// ListProducts handles GET /api/v1/products
func ListProducts(c *gin.Context) {
	products, err := services.GetOrderStore().ListProducts(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to list products", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve products")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// ListPaymentMethods handles GET /api/v1/payment_methods
func ListPaymentMethods(c *gin.Context) {
	methods, err := services.GetOrderStore().ListPaymentMethods(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to list payment methods", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve payment methods")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    methods,
	})
}

// ListInflowSources handles GET /api/v1/inflow_sources
func ListInflowSources(c *gin.Context) {
	sources, err := services.GetOrderStore().ListInflowSources(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to list inflow sources", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve inflow sources")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sources,
	})
}

// GetOrder handles GET /api/v1/orders/:id - returns a placed order with its total price
func GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
		return
	}

	ctx := c.Request.Context()
	store := services.GetOrderStore()
	order, err := store.GetOrder(ctx, uint(id))
	if errors.Is(err, services.ErrNotFound) {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if err != nil {
		zap.L().Error("Failed to load order", zap.Uint64("order_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve order")
		return
	}

	total, err := order.TotalPrice(ctx, store)
	if err != nil {
		zap.L().Error("Failed to price order", zap.Uint64("order_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute order total")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": OrderResponse{
			Order:           order,
			InflowSourceIDs: order.InflowSourceIDs(),
			TotalPrice:      total,
		},
	})
}
