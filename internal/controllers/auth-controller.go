package controllers

import (
	"context"
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
)

// TokenIssuer creates and revokes access tokens.
type TokenIssuer interface {
	IssueToken(ctx context.Context, user *models.User) (oauth2.TokenInfo, error)
	RevokeToken(ctx context.Context, access string) error
}

type AuthController struct {
	userService services.UserService
	tokens      TokenIssuer
}

func NewAuthController(userService services.UserService, tokens TokenIssuer) *AuthController {
	return &AuthController{
		userService: userService,
		tokens:      tokens,
	}
}

// Login godoc
// @Summary Obtain an auth token
// @Description Exchanges email and password for an access token to send as "Token <auth_token>".
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} models.APIError
// @Router /api/auth/token/login/ [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	ti, err := ac.tokens.IssueToken(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{AuthToken: ti.GetAccess()})
}

// Logout godoc
// @Summary Revoke the current auth token
// @Tags auth
// @Success 204
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/auth/token/logout/ [post]
func (ac *AuthController) Logout(c *gin.Context) {
	token := middleware.CurrentToken(c)
	if token == "" {
		respondError(c, services.ErrNotAuthenticated)
		return
	}
	if err := ac.tokens.RevokeToken(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
