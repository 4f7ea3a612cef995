package controllers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/media"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RecipeController handles HTTP requests related to recipes
type RecipeController interface {
	// ListRecipes returns a filtered, paginated list of recipes
	ListRecipes(ctx *gin.Context)
	// GetRecipe returns a single recipe
	GetRecipe(ctx *gin.Context)
	// CreateRecipe creates a recipe authored by the caller
	CreateRecipe(ctx *gin.Context)
	// UpdateRecipe applies PUT and PATCH
	UpdateRecipe(ctx *gin.Context)
	// DeleteRecipe removes a recipe
	DeleteRecipe(ctx *gin.Context)
	AddFavorite(ctx *gin.Context)
	RemoveFavorite(ctx *gin.Context)
	AddToShoppingCart(ctx *gin.Context)
	RemoveFromShoppingCart(ctx *gin.Context)
	// GetLink returns the public short link of a recipe
	GetLink(ctx *gin.Context)
	// DownloadShoppingCart exports the caller's consolidated shopping list
	DownloadShoppingCart(ctx *gin.Context)
}

type recipeController struct {
	recipes   services.RecipeService
	relations services.RelationService
	shopping  services.ShoppingListService
	media     *media.Store
	publicURL string
	pageSize  int
}

// NewRecipeController creates a new instance of RecipeController
func NewRecipeController(
	recipes services.RecipeService,
	relations services.RelationService,
	shopping services.ShoppingListService,
	store *media.Store,
	publicURL string,
	pageSize int,
) RecipeController {
	return &recipeController{
		recipes:   recipes,
		relations: relations,
		shopping:  shopping,
		media:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		pageSize:  pageSize,
	}
}

// ListRecipes godoc
// @Summary List recipes
// @Description Paginated recipes ordered by name. is_favorited and is_in_shopping_cart only filter for authenticated callers.
// @Tags recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param author query int false "Author ID"
// @Param tags query []string false "Tag slugs (repeatable, any match)" collectionFormat(multi)
// @Param is_favorited query int false "1 for favorited only, 0 to exclude favorited"
// @Param is_in_shopping_cart query int false "1 for cart only, 0 to exclude cart"
// @Success 200 {object} dto.Page[dto.RecipeResponse]
// @Failure 500 {object} models.APIError
// @Router /api/recipes/ [get]
func (c *recipeController) ListRecipes(ctx *gin.Context) {
	filter := services.RecipeFilter{
		TagSlugs:         ctx.QueryArray("tags"),
		IsFavorited:      queryBool(ctx, "is_favorited"),
		IsInShoppingCart: queryBool(ctx, "is_in_shopping_cart"),
	}
	if author, err := strconv.ParseUint(ctx.Query("author"), 10, 64); err == nil {
		id := uint(author)
		filter.AuthorID = &id
	}

	page := pageFromQuery(ctx, c.pageSize)
	views, total, err := c.recipes.ListRecipes(ctx.Request.Context(), middleware.CurrentActor(ctx), filter, page)
	if err != nil {
		respondError(ctx, err)
		return
	}

	results := make([]dto.RecipeResponse, len(views))
	for i := range views {
		results[i] = dto.NewRecipeResponse(&views[i], c.media)
	}
	ctx.JSON(http.StatusOK, newPage(ctx, page, total, results))
}

// GetRecipe godoc
// @Summary Get recipe by ID
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} dto.RecipeResponse
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id}/ [get]
func (c *recipeController) GetRecipe(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.recipes.GetRecipe(ctx.Request.Context(), middleware.CurrentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewRecipeResponse(view, c.media))
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Description Image is a base64 data URI. Ingredients and tags are required and must not repeat.
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body dto.RecipeWriteRequest true "Recipe"
// @Success 201 {object} dto.RecipeResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/ [post]
func (c *recipeController) CreateRecipe(ctx *gin.Context) {
	var req dto.RecipeWriteRequest
	if !bindJSON(ctx, &req) {
		return
	}

	image, ok := c.saveImage(ctx, req.Image)
	if !ok {
		return
	}

	view, err := c.recipes.CreateRecipe(ctx.Request.Context(), middleware.CurrentActor(ctx), req.Input(image))
	if err != nil {
		if image != nil {
			c.media.Delete(*image)
		}
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewRecipeResponse(view, c.media))
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description PUT requires every field; PATCH changes only the supplied ones. Supplied tags and ingredients replace the current sets.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body dto.RecipeWriteRequest true "Recipe"
// @Success 200 {object} dto.RecipeResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/ [patch]
// @Router /api/recipes/{id}/ [put]
func (c *recipeController) UpdateRecipe(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.RecipeWriteRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if ctx.Request.Method == http.MethodPut && !c.requireAllFields(ctx, req) {
		return
	}

	actor := middleware.CurrentActor(ctx)
	previous, err := c.recipes.GetRecipe(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	image, ok := c.saveImage(ctx, req.Image)
	if !ok {
		return
	}

	view, err := c.recipes.UpdateRecipe(ctx.Request.Context(), actor, id, req.Input(image))
	if err != nil {
		if image != nil {
			c.media.Delete(*image)
		}
		respondError(ctx, err)
		return
	}
	if image != nil && previous.Image != *image {
		c.media.Delete(previous.Image)
	}
	ctx.JSON(http.StatusOK, dto.NewRecipeResponse(view, c.media))
}

func (c *recipeController) requireAllFields(ctx *gin.Context, req dto.RecipeWriteRequest) bool {
	verr := &services.ValidationError{}
	if req.Name == nil {
		verr.Add("name", "This field is required.")
	}
	if req.Text == nil {
		verr.Add("text", "This field is required.")
	}
	if req.Image == nil {
		verr.Add("image", "This field is required.")
	}
	if req.CookingTime == nil {
		verr.Add("cooking_time", "This field is required.")
	}
	if req.Ingredients == nil {
		verr.Add("ingredients", "This field is required.")
	}
	if req.Tags == nil {
		verr.Add("tags", "This field is required.")
	}
	if err := verr.Err(); err != nil {
		respondError(ctx, err)
		return false
	}
	return true
}

// saveImage stores an uploaded data URI and returns its relative path.
func (c *recipeController) saveImage(ctx *gin.Context, dataURI *string) (*string, bool) {
	if dataURI == nil {
		return nil, true
	}
	rel, err := c.media.SaveBase64(media.KindRecipes, *dataURI)
	if err != nil {
		respondError(ctx, &services.ValidationError{Fields: map[string][]string{"image": {err.Error()}}})
		return nil, false
	}
	return &rel, true
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/ [delete]
func (c *recipeController) DeleteRecipe(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentActor(ctx)

	view, err := c.recipes.GetRecipe(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if err := c.recipes.DeleteRecipe(ctx.Request.Context(), actor, id); err != nil {
		respondError(ctx, err)
		return
	}
	c.media.Delete(view.Image)
	ctx.Status(http.StatusNoContent)
}

// AddFavorite godoc
// @Summary Add a recipe to favorites
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} dto.RecipeShort
// @Failure 400 {object} models.APIError "Already in favorites"
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite/ [post]
func (c *recipeController) AddFavorite(ctx *gin.Context) {
	c.addRelation(ctx, c.relations.Favorites())
}

// RemoveFavorite godoc
// @Summary Remove a recipe from favorites
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} models.APIError "Not in favorites"
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite/ [delete]
func (c *recipeController) RemoveFavorite(ctx *gin.Context) {
	c.removeRelation(ctx, c.relations.Favorites())
}

// AddToShoppingCart godoc
// @Summary Add a recipe to the shopping cart
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} dto.RecipeShort
// @Failure 400 {object} models.APIError "Already in cart"
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart/ [post]
func (c *recipeController) AddToShoppingCart(ctx *gin.Context) {
	c.addRelation(ctx, c.relations.Cart())
}

// RemoveFromShoppingCart godoc
// @Summary Remove a recipe from the shopping cart
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} models.APIError "Not in cart"
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart/ [delete]
func (c *recipeController) RemoveFromShoppingCart(ctx *gin.Context) {
	c.removeRelation(ctx, c.relations.Cart())
}

func (c *recipeController) addRelation(ctx *gin.Context, relation services.RecipeRelation) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	recipe, err := relation.Add(ctx.Request.Context(), middleware.CurrentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewRecipeShort(recipe, c.media))
}

func (c *recipeController) removeRelation(ctx *gin.Context, relation services.RecipeRelation) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := relation.Remove(ctx.Request.Context(), middleware.CurrentActor(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetLink godoc
// @Summary Get the short link of a recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} dto.ShortLinkResponse
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id}/get-link/ [get]
func (c *recipeController) GetLink(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.recipes.GetRecipe(ctx.Request.Context(), nil, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ShortLinkResponse{ShortLink: c.publicURL + "/s/" + view.ShortLink + "/"})
}

// DownloadShoppingCart godoc
// @Summary Download the shopping list
// @Description One "name (unit) - total" line per ingredient, summed over the caller's recipes.
// @Tags recipes
// @Produce plain
// @Success 200 {string} string "shopping_cart.txt"
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/download_shopping_cart/ [get]
func (c *recipeController) DownloadShoppingCart(ctx *gin.Context) {
	items, err := c.shopping.Build(ctx.Request.Context(), middleware.CurrentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := c.shopping.Render(&buf, items); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="shopping_cart.txt"`)
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
