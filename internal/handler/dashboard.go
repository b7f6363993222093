package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velsh/stockdeck/internal/domain/product"
)

type dashboardStatsResponse struct {
	TotalProducts    int               `json:"totalProducts"`
	TotalOrders      int               `json:"totalOrders"`
	LowStockCount    int               `json:"lowStockCount"`
	RecentOrders     []orderResponse   `json:"recentOrders"`
	LowStockProducts []productResponse `json:"lowStockProducts"`
}

func (h *Handler) getDashboardStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	// Restocking list is presented most urgent first.
	low := make([]product.Product, len(stats.LowStockProducts))
	copy(low, stats.LowStockProducts)
	product.SortByUrgency(low)

	resp := dashboardStatsResponse{
		TotalProducts:    stats.TotalProducts,
		TotalOrders:      stats.TotalOrders,
		LowStockCount:    stats.LowStockCount,
		RecentOrders:     make([]orderResponse, len(stats.RecentOrders)),
		LowStockProducts: make([]productResponse, len(low)),
	}
	for i, o := range stats.RecentOrders {
		resp.RecentOrders[i] = toOrderResponse(o)
	}
	for i, p := range low {
		resp.LowStockProducts[i] = toProductResponse(p)
	}
	c.JSON(http.StatusOK, resp)
}
