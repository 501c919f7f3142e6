package settlement

import (
	"net/http"

	"bountyhub/pkg/middleware"
	"bountyhub/pkg/server"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r server.Router, h *Handler) {
	r.API.GET("/dashboard", h.Dashboard)

	projects := r.API.Group("/projects/:id")
	projects.GET("/leaderboard", h.Leaderboard)
	projects.GET("/rewards", h.Breakdown)
	projects.GET("/settlement", h.Settlement)
	projects.POST("/settlement", h.Settle)
}

func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.svc.Dashboard(ctx, middleware.ActorID(ctx))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.svc.Leaderboard(ctx, middleware.ActorID(ctx), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Breakdown(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.svc.Breakdown(ctx, middleware.ActorID(ctx), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Settlement(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.svc.Settlement(ctx, middleware.ActorID(ctx), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Settle(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.svc.Settle(ctx, middleware.ActorID(ctx), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, snap.View())
}
