package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

type IngredientController struct {
	ingredients services.IngredientService
}

func NewIngredientController(ingredients services.IngredientService) *IngredientController {
	return &IngredientController{ingredients: ingredients}
}

// ListIngredients godoc
// @Summary List ingredients
// @Tags ingredients
// @Produce json
// @Param name query string false "Case-insensitive name prefix"
// @Success 200 {array} dto.IngredientResponse
// @Router /api/ingredients/ [get]
func (ic *IngredientController) ListIngredients(c *gin.Context) {
	items, err := ic.ingredients.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.IngredientResponse, len(items))
	for i := range items {
		out[i] = dto.NewIngredientResponse(&items[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetIngredient godoc
// @Summary Get ingredient by ID
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} dto.IngredientResponse
// @Failure 404 {object} models.APIError
// @Router /api/ingredients/{id}/ [get]
func (ic *IngredientController) GetIngredient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := ic.ingredients.GetIngredientByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewIngredientResponse(item))
}

// CreateIngredient godoc
// @Summary Create an ingredient
// @Description Staff only.
// @Tags ingredients
// @Accept json
// @Produce json
// @Param ingredient body dto.IngredientCreateRequest true "Ingredient"
// @Success 201 {object} dto.IngredientResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/ingredients/ [post]
func (ic *IngredientController) CreateIngredient(c *gin.Context) {
	var req dto.IngredientCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := ic.ingredients.CreateIngredient(c.Request.Context(), req.Name, req.MeasurementUnit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewIngredientResponse(item))
}
