package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TagController serves the tag catalog. The list is not paginated.
type TagController struct {
	tags services.TagService
}

func NewTagController(tags services.TagService) *TagController {
	return &TagController{tags: tags}
}

// ListTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} dto.TagResponse
// @Router /api/tags/ [get]
func (tc *TagController) ListTags(c *gin.Context) {
	tags, err := tc.tags.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.TagResponse, len(tags))
	for i := range tags {
		out[i] = dto.NewTagResponse(&tags[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetTag godoc
// @Summary Get tag by ID
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} dto.TagResponse
// @Failure 404 {object} models.APIError
// @Router /api/tags/{id}/ [get]
func (tc *TagController) GetTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tag, err := tc.tags.GetTagByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTagResponse(tag))
}

// CreateTag godoc
// @Summary Create a tag
// @Description Staff only. The slug is derived from the name when omitted.
// @Tags tags
// @Accept json
// @Produce json
// @Param tag body dto.TagCreateRequest true "Tag"
// @Success 201 {object} dto.TagResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/tags/ [post]
func (tc *TagController) CreateTag(c *gin.Context) {
	var req dto.TagCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := tc.tags.CreateTag(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTagResponse(tag))
}
