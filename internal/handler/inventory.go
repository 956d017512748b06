package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/service"
	"github.com/maxviazov/tayseer-service/pkg/response"
)

type InventoryHandler struct {
	svc service.InventoryService
}

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// Register adds the stock routes to the products group. Static segments win over /:id in gin.
func (h *InventoryHandler) Register(g *gin.RouterGroup) {
	g.GET("/low-stock", h.lowStock)
	g.POST("/:id/stock", h.adjust)
}

type adjustStockRequest struct {
	Delta int64 `json:"delta"`
}

func (h *InventoryHandler) adjust(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

type lowStockParams struct {
	Threshold int64 `schema:"threshold" validate:"gte=0"`
	Page      int   `schema:"page" validate:"gte=1"`
	Limit     int   `schema:"limit" validate:"gte=1,lte=100"`
}

func (h *InventoryHandler) lowStock(c *gin.Context) {
	p := lowStockParams{Threshold: 5, Page: 1, Limit: query.DefaultLimit}
	if err := decodeParams(&p, c.Request.URL.Query()); err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.LowStock(c.Request.Context(), p.Threshold, p.Page, p.Limit)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
