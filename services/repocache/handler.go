package repocache

import (
	"errors"
	"net/http"
	"strings"

	"bountyhub/pkg/errutil"
	"bountyhub/pkg/logger"
	"bountyhub/pkg/server"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	lister *CachedLister
}

func NewHandler(lister *CachedLister) *Handler {
	return &Handler{lister: lister}
}

func RegisterRoutes(r server.Router, h *Handler) {
	r.API.GET("/repositories", h.List)
}

type listQuery struct {
	Owner   string `form:"owner"`
	Refresh bool   `form:"refresh"`
}

func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}
	q.Owner = strings.TrimSpace(q.Owner)
	if q.Owner == "" {
		_ = c.Error(errutil.ValidationFailed("owner is required", nil, errutil.WithDetail("owner", "is required")))
		return
	}

	ctx := c.Request.Context()
	repos, err := h.lister.List(ctx, q.Owner, q.Refresh)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list repositories", zap.String("owner", q.Owner), zap.Error(err))
		var upstream *UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			_ = c.Error(errutil.NotFound("repository owner not found", nil))
			return
		}
		_ = c.Error(errutil.Internal("failed to list repositories", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"repositories": repos})
}
