// Package handler exposes the inventory core over HTTP. Routing and JSON
// binding are gin; all business rules live in the domain services.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/velsh/stockdeck/internal/domain/dashboard"
	"github.com/velsh/stockdeck/internal/domain/order"
	"github.com/velsh/stockdeck/internal/domain/product"
	"github.com/velsh/stockdeck/internal/domain/stock"
)

// Handler holds the domain services behind the HTTP routes.
type Handler struct {
	products  *product.Service
	orders    *order.Service
	dashboard *dashboard.Service
}

// NewHandler constructs a Handler with the required domain services.
func NewHandler(products *product.Service, orders *order.Service, dash *dashboard.Service) *Handler {
	return &Handler{products: products, orders: orders, dashboard: dash}
}

// Router builds the gin engine with all API routes mounted under /api.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	api := r.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.POST("/products", h.createProduct)
		api.GET("/products/:id", h.getProduct)
		api.PUT("/products/:id", h.updateProduct)
		api.DELETE("/products/:id", h.deleteProduct)

		api.GET("/orders", h.listOrders)
		api.POST("/orders", h.createOrder)

		api.GET("/dashboard/stats", h.getDashboardStats)
	}

	return r
}

// errorResponse is the JSON error body shared by all routes.
type errorResponse struct {
	Code      int                `json:"code"`
	Message   string             `json:"message"`
	Shortages []shortageResponse `json:"shortages,omitempty"`
}

type shortageResponse struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// writeError maps domain errors to HTTP responses. Anything unrecognized is a
// storage failure: logged and surfaced as a 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	var (
		validationErr *product.ValidationError
		quantityErr   *order.InvalidQuantityError
		stockQtyErr   *stock.InvalidQuantityError
		notFoundErr   *order.ProductNotFoundError
		shortErr      *stock.InsufficientStockError
	)

	switch {
	case errors.Is(err, order.ErrEmptyItems):
		c.JSON(http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: validationErr.Error()})
	case errors.As(err, &quantityErr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Code: http.StatusUnprocessableEntity, Message: quantityErr.Error()})
	case errors.As(err, &stockQtyErr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Code: http.StatusUnprocessableEntity, Message: stockQtyErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Code: http.StatusUnprocessableEntity, Message: notFoundErr.Error()})
	case errors.Is(err, product.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Code: http.StatusNotFound, Message: "product not found"})
	case errors.As(err, &shortErr):
		resp := errorResponse{
			Code:      http.StatusConflict,
			Message:   shortErr.Error(),
			Shortages: make([]shortageResponse, len(shortErr.Shortages)),
		}
		for i, s := range shortErr.Shortages {
			resp.Shortages[i] = shortageResponse{
				ProductID: s.ProductID,
				Requested: s.Requested,
				Available: s.Available,
			}
		}
		c.JSON(http.StatusConflict, resp)
	default:
		zctx.From(c.Request.Context()).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
	}
}
