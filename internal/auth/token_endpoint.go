package auth

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
)

// HandleToken handles the standard OAuth2 token endpoint
// @Summary Token Endpoint
// @Description Obtain an access token with the password, refresh_token or client_credentials grant
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Grant type: password, refresh_token or client_credentials"
// @Param client_id formData string true "Client ID"
// @Param client_secret formData string false "Client Secret (confidential clients)"
// @Param username formData string false "User email (password grant)"
// @Param password formData string false "User password (password grant)"
// @Param refresh_token formData string false "Refresh token (refresh_token grant)"
// @Param scope formData string false "Requested scope"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	if err := o.server.HandleTokenRequest(c.Writer, c.Request); err != nil {
		log.WithError(err).Warn("Token request failed")
		if !c.Writer.Written() {
			status, body := tokenError(err)
			c.JSON(status, body)
		}
	}
}

// tokenError maps a token request failure onto an RFC 6749 error body.
func tokenError(err error) (int, models.OAuth2Error) {
	switch {
	case errors.Is(err, oauth2errors.ErrInvalidClient):
		return http.StatusUnauthorized, models.NewOAuth2Error(models.ErrInvalidClient, err.Error())
	case errors.Is(err, oauth2errors.ErrUnsupportedGrantType):
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrUnsupportedGrantType, err.Error())
	case errors.Is(err, oauth2errors.ErrInvalidGrant):
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidGrant, err.Error())
	default:
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error())
	}
}
