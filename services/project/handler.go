package project

import (
	"net/http"

	"bountyhub/pkg/errutil"
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
	projects := r.API.Group("/projects")
	projects.POST("", h.Create)
	projects.GET("", h.List)
	projects.GET("/:id", h.Get)
	projects.PATCH("/:id/status", h.UpdateStatus)
	projects.PATCH("/:id/visibility", h.UpdateVisibility)
	projects.PUT("/:id/organizations", h.UpdateOrganizations)
}

func views(projects []*Project) []View {
	out := make([]View, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.View())
	}
	return out
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), middleware.ActorID(c.Request.Context()), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, p.View())
}

func (h *Handler) List(c *gin.Context) {
	var f ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}
	if f.OwnerID == "me" {
		f.OwnerID = middleware.ActorID(c.Request.Context())
	}

	projects, err := h.svc.List(c.Request.Context(), middleware.ActorID(c.Request.Context()), f)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": views(projects)})
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), middleware.ActorID(c.Request.Context()), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, p.View())
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	p, err := h.svc.UpdateStatus(c.Request.Context(), middleware.ActorID(c.Request.Context()), c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, p.View())
}

func (h *Handler) UpdateVisibility(c *gin.Context) {
	var req UpdateVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	p, err := h.svc.UpdateVisibility(c.Request.Context(), middleware.ActorID(c.Request.Context()), c.Param("id"), req.Visibility)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, p.View())
}

func (h *Handler) UpdateOrganizations(c *gin.Context) {
	var req UpdateOrganizationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	p, err := h.svc.UpdateOrganizations(c.Request.Context(), middleware.ActorID(c.Request.Context()), c.Param("id"), req.Organizations)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, p.View())
}
