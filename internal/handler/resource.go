package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/tayseer-service/internal/service"
	"github.com/maxviazov/tayseer-service/pkg/response"
)

// ResourceHandler serves CRUD and list routes for one collection.
type ResourceHandler[T any, C any, U any] struct {
	svc service.Resource[T, C, U]
}

func NewResourceHandler[T any, C any, U any](svc service.Resource[T, C, U]) *ResourceHandler[T, C, U] {
	return &ResourceHandler[T, C, U]{svc: svc}
}

// Register mounts the collection routes on g.
func (h *ResourceHandler[T, C, U]) Register(g *gin.RouterGroup) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *ResourceHandler[T, C, U]) list(c *gin.Context) {
	q, err := parseListQuery(c.Request.URL.Query(), h.svc.Schema())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *ResourceHandler[T, C, U]) create(c *gin.Context) {
	var in C
	if err := c.ShouldBindJSON(&in); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *ResourceHandler[T, C, U]) getByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *ResourceHandler[T, C, U]) update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var in U
	if err := c.ShouldBindJSON(&in); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *ResourceHandler[T, C, U]) delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteMessage(c, http.StatusOK, "deleted", nil)
}

// malformedBody hides JSON decoder internals from clients.
func malformedBody() error {
	return service.NewInvalidInput([]service.FieldError{{Field: "body", Message: "malformed JSON"}})
}
