package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/velsh/stockdeck/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	Items      []orderItemResponse `json:"items"`
	TotalPrice float64             `json:"totalPrice"`
	CreatedAt  string              `json:"createdAt"`
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.Round(2).InexactFloat64(),
		}
	}
	return orderResponse{
		ID:         o.ID,
		Items:      items,
		TotalPrice: o.TotalPrice.Round(2).InexactFloat64(),
		CreatedAt:  o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	items := make([]order.RequestItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.RequestItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.orders.PlaceOrder(c.Request.Context(), order.PlaceOrderRequest{Items: items})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*o))
}
