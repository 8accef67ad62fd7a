package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/services"
	"go.uber.org/zap"
)

type OrderHandler struct {
	logger  *zap.Logger
	service services.OrderService
	submit  []gin.HandlerFunc
}

// NewOrderHandler builds the order routes. submitMiddleware runs only on POST /orders.
func NewOrderHandler(logger *zap.Logger, svc services.OrderService, submitMiddleware ...gin.HandlerFunc) *OrderHandler {
	return &OrderHandler{logger: logger, service: svc, submit: submitMiddleware}
}

// RegisterRoutes registers order routes on the provided group.
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/orders", append(h.submit, h.CreateOrder)...)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
}

// CreateOrder godoc
// @Summary      Submit an order
// @Description  Validates and stores a buy/sell order. Every broken rule is listed in fields; error is the first one.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order  body      views.OrderRequest  true  "Order ticket"
// @Success      201    {object}  views.CreateOrderResponse
// @Failure      400    {object}  pkg.ErrorResponse
// @Failure      429    {object}  pkg.ErrorResponse
// @Failure      503    {object}  pkg.ErrorResponse
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	traceID, ok := traceID(c, h.logger)
	if !ok {
		return
	}

	var req views.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, traceID, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		return
	}

	order, err := h.service.SubmitOrder(c.Request.Context(), traceID, req)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusCreated, views.CreateOrderResponse{
		Message: "Order created successfully",
		OrderID: order.ID,
	})
}

// ListOrders godoc
// @Summary      List orders
// @Description  Every stored order, ascending by id.
// @Tags         orders
// @Produce      json
// @Success      200  {object}  views.OrdersResponse
// @Failure      503  {object}  pkg.ErrorResponse
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	traceID, ok := traceID(c, h.logger)
	if !ok {
		return
	}
	orders, err := h.service.ListOrders(c.Request.Context(), traceID)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, toOrdersResponse(orders))
}

// GetOrder godoc
// @Summary      Get one order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order id"
// @Success      200  {object}  views.OrderView
// @Failure      400  {object}  pkg.ErrorResponse
// @Failure      404  {object}  pkg.ErrorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	traceID, ok := traceID(c, h.logger)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(c, h.logger, traceID, pkg.NewAppError(pkg.ErrInvalidInputCode, "order id must be a positive integer", nil))
		return
	}
	order, err := h.service.GetOrder(c.Request.Context(), traceID, id)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, order.ToView())
}

func toOrdersResponse(orders []models.Order) views.OrdersResponse {
	out := make([]views.OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ToView())
	}
	return views.OrdersResponse{Orders: out, Count: len(out)}
}
