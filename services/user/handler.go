package user

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
	r.API.POST("/users/sync", h.SyncProfile)
	r.API.GET("/users/me", h.Me)
	r.API.PUT("/users/me/wallet", h.UpdateWallet)
	r.API.GET("/organizations", h.ListOrganizations)
}

func (h *Handler) SyncProfile(c *gin.Context) {
	var req SyncProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	u, err := h.svc.SyncProfile(c.Request.Context(), middleware.ActorID(c.Request.Context()), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.ActorID(c.Request.Context()))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateWallet(c *gin.Context) {
	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	u, err := h.svc.UpdateWallet(c.Request.Context(), middleware.ActorID(c.Request.Context()), req.WalletAddress)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (h *Handler) ListOrganizations(c *gin.Context) {
	orgs, err := h.svc.ListOrganizations(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}
