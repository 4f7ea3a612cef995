package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestRespondError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string][]string{"name": {"This field is required."}}}, http.StatusBadRequest, models.ErrValidationFailed},
		{"not authenticated", services.ErrNotAuthenticated, http.StatusUnauthorized, models.ErrUnauthorized},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, models.ErrForbidden},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrNotFound), http.StatusNotFound, models.ErrNotFound},
		{"duplicate relation", services.ErrDuplicate, http.StatusBadRequest, models.ErrDuplicateRelation},
		{"missing relation", services.ErrRelationNotFound, http.StatusBadRequest, models.ErrRelationNotFound},
		{"self subscription", services.ErrSelfReference, http.StatusBadRequest, models.ErrSelfSubscription},
		{"conflict", services.ErrConflict, http.StatusBadRequest, models.ErrConflict},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusBadRequest, models.ErrBadRequest},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, models.ErrInternalServer},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("/api/recipes/")
			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body models.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Message, "disk on fire")
		})
	}
}

func TestRespondErrorValidationDetails(t *testing.T) {
	c, w := newTestContext("/api/recipes/")
	respondError(c, &services.ValidationError{Fields: map[string][]string{"tags": {"Tags must not repeat."}}})

	var body models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"Tags must not repeat."}, body.Details["tags"])
}

func TestPathID(t *testing.T) {
	c, w := newTestContext("/api/recipes/abc/")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok := pathID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, _ = newTestContext("/api/recipes/7/")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
}

func TestNewPageLinks(t *testing.T) {
	c, _ := newTestContext("/api/recipes/?page=2&limit=2&tags=lunch")
	c.Request.Host = "api.test"
	page := pageFromQuery(c, 6)
	require.Equal(t, 2, page.Number)
	require.Equal(t, 2, page.Limit)

	p := newPage(c, page, 5, []int{3, 4})
	assert.Equal(t, int64(5), p.Count)
	require.NotNil(t, p.Next)
	require.NotNil(t, p.Previous)
	assert.Equal(t, "http://api.test/api/recipes/?limit=2&page=3&tags=lunch", *p.Next)
	assert.Equal(t, "http://api.test/api/recipes/?limit=2&page=1&tags=lunch", *p.Previous)

	last := newPage(c, services.Page{Number: 3, Limit: 2}, 5, []int{5})
	assert.Nil(t, last.Next)

	c, _ = newTestContext("/api/recipes/?page=9223372036854775807&limit=6")
	c.Request.Host = "api.test"
	huge := pageFromQuery(c, 6)
	assert.Equal(t, services.MaxPageNumber, huge.Number)
	assert.Positive(t, huge.Offset())
	beyond := newPage(c, huge, 3, []int{})
	assert.Nil(t, beyond.Next)
	require.NotNil(t, beyond.Previous)
	assert.Contains(t, *beyond.Previous, fmt.Sprintf("page=%d", services.MaxPageNumber-1))

	empty := newPage[int](c, services.Page{Number: 1, Limit: 2}, 0, nil)
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Previous)
}
