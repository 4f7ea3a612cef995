package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Context keys set by Authenticate.
const (
	ActorKey       = "actor"
	AccessTokenKey = "accessToken"
)

// TokenValidator resolves an access token to the caller it was issued for.
type TokenValidator interface {
	ValidateToken(ctx context.Context, access string) (*models.Actor, error)
}

// Authenticate reads an optional access token from the Authorization header.
// Both "Bearer <token>" and "Token <token>" are accepted. Requests without
// the header continue anonymously; a present but invalid token is rejected.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString, ok := extractToken(authHeader)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, models.ErrInvalidRequest,
				"Authorization header must use the Bearer or Token scheme")
			return
		}

		actor, err := tokens.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			log.WithError(err).Debug("Rejected access token")
			respondWithError(c, http.StatusUnauthorized, models.ErrInvalidToken, "Invalid or expired token")
			return
		}

		c.Set(ActorKey, actor)
		c.Set(AccessTokenKey, tokenString)
		c.Next()
	}
}

func extractToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return token, true
	}
	return "", false
}

// CurrentActor returns the authenticated caller, or nil for anonymous requests.
func CurrentActor(c *gin.Context) *models.Actor {
	v, ok := c.Get(ActorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*models.Actor)
	return actor
}

// CurrentToken returns the raw access token of the request, if any.
func CurrentToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}

func respondWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.NewAPIError(code, message))
}
