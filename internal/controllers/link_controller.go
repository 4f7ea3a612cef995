package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// LinkController resolves short links to the recipe page of the frontend.
type LinkController struct {
	recipes   services.RecipeService
	publicURL string
}

func NewLinkController(recipes services.RecipeService, publicURL string) *LinkController {
	return &LinkController{recipes: recipes, publicURL: strings.TrimRight(publicURL, "/")}
}

// Redirect godoc
// @Summary Follow a short link
// @Tags recipes
// @Param short_link path string true "Short link code"
// @Success 302
// @Failure 404 {object} models.APIError
// @Router /s/{short_link}/ [get]
func (lc *LinkController) Redirect(c *gin.Context) {
	id, err := lc.recipes.ResolveShortLink(c.Request.Context(), c.Param("short_link"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%d/", lc.publicURL, id))
}
