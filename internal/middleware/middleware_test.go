package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/permissions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubValidator map[string]*models.Actor

func (s stubValidator) ValidateToken(ctx context.Context, access string) (*models.Actor, error) {
	if actor, ok := s[access]; ok {
		return actor, nil
	}
	return nil, errors.New("unknown token")
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	tokens := stubValidator{
		"user-token":  {UserID: 1, Role: models.RoleUser},
		"admin-token": {UserID: 2, Role: models.RoleAdmin},
	}
	chain := append([]gin.HandlerFunc{Authenticate(tokens)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		if actor := CurrentActor(c); actor != nil {
			c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})
	router.Any("/api/resource/", chain...)
	router.Any("/api/users/me/", chain...)
	return router
}

func perform(router *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name       string
		auth       string
		wantStatus int
		wantBody   string
	}{
		{"anonymous", "", http.StatusOK, `"user_id":null`},
		{"bearer token", "Bearer user-token", http.StatusOK, `"user_id":1`},
		{"token scheme", "Token admin-token", http.StatusOK, `"user_id":2`},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, models.ErrInvalidToken},
		{"bad scheme", "Basic abc", http.StatusUnauthorized, models.ErrInvalidRequest},
		{"empty token", "Bearer ", http.StatusUnauthorized, models.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodGet, "/api/resource/", tt.auth)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequirePolicy(t *testing.T) {
	router := newTestRouter(RequirePolicy(permissions.RecipePolicy))

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/resource/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodPost, "/api/resource/", "").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodPost, "/api/resource/", "Bearer user-token").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/api/users/me/", "").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/users/me/", "Token user-token").Code)
}

func TestRequireStaff(t *testing.T) {
	router := newTestRouter(RequireStaff())

	w := perform(router, http.MethodPost, "/api/resource/", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrUnauthorized)

	w = perform(router, http.MethodPost, "/api/resource/", "Bearer user-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrForbidden)

	w = perform(router, http.MethodPost, "/api/resource/", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, w.Code)
}
