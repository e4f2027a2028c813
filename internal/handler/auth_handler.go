package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aarongarrett/quorum/internal/middleware"
	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
)

// AuthHandler handles admin authentication HTTP endpoints.
type AuthHandler struct {
	service *services.AdminService
}

func NewAuthHandler(service *services.AdminService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login handles admin authentication. The token is returned in the body for
// API clients and set as a cookie for the dashboard.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	token, expiresAt, err := h.service.Login(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminTokenCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}))
}
