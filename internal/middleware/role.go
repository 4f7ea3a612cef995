package middleware

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/permissions"
	"github.com/gin-gonic/gin"
)

// RequirePolicy runs the request-level part of policy before the handler.
func RequirePolicy(policy permissions.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := policy.CheckRequest(permissions.Request{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Actor:  CurrentActor(c),
		})
		if err == nil {
			c.Next()
			return
		}

		if errors.Is(err, permissions.ErrNotAuthenticated) {
			respondWithError(c, http.StatusUnauthorized, models.ErrUnauthorized, err.Error())
			return
		}
		respondWithError(c, http.StatusForbidden, models.ErrForbidden, err.Error())
	}
}

// RequireStaff lets only staff and superusers through.
func RequireStaff() gin.HandlerFunc {
	return RequirePolicy(permissions.StaffPolicy)
}
