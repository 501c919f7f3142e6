package issue

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
	issues := r.API.Group("/issues")
	issues.POST("", h.Create)
	issues.GET("", h.List)
	issues.GET("/:id", h.Get)
	issues.PATCH("/:id/status", h.UpdateStatus)
	issues.PATCH("/:id/severity", h.UpdateSeverity)
	issues.PUT("/:id/github", h.UpdateGithubURL)
	issues.GET("/:id/comments", h.ListComments)
	issues.POST("/:id/comments", h.AddComment)
}

func actor(c *gin.Context) string {
	return middleware.ActorID(c.Request.Context())
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	issue, err := h.svc.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, issue)
}

func (h *Handler) List(c *gin.Context) {
	var f ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}

	issues, err := h.svc.ListVisible(c.Request.Context(), actor(c), f)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

func (h *Handler) Get(c *gin.Context) {
	issue, err := h.svc.GetVisible(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	issue, err := h.svc.UpdateStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

func (h *Handler) UpdateSeverity(c *gin.Context) {
	var req UpdateSeverityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	issue, err := h.svc.UpdateSeverity(c.Request.Context(), actor(c), c.Param("id"), req.Severity)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

func (h *Handler) UpdateGithubURL(c *gin.Context) {
	var req UpdateGithubURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	issue, err := h.svc.UpdateGithubURL(c.Request.Context(), actor(c), c.Param("id"), req.GithubIssueURL)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

func (h *Handler) ListComments(c *gin.Context) {
	if _, err := h.svc.GetVisible(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}

	comments, err := h.svc.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *Handler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), actor(c), c.Param("id"), req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}
