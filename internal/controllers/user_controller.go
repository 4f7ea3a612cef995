package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/media"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// UserController serves accounts, avatars and subscriptions.
type UserController struct {
	users             services.UserService
	relations         services.RelationService
	media             *media.Store
	pageSize          int
	subscriptionsSize int
}

func NewUserController(users services.UserService, relations services.RelationService, store *media.Store, pageSize, subscriptionsSize int) *UserController {
	return &UserController{
		users:             users,
		relations:         relations,
		media:             store,
		pageSize:          pageSize,
		subscriptionsSize: subscriptionsSize,
	}
}

// Register godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body dto.RegisterUserRequest true "New account"
// @Success 201 {object} dto.UserBase
// @Failure 400 {object} models.APIError
// @Router /api/users/ [post]
func (uc *UserController) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.users.Register(c.Request.Context(), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(user, false, uc.media).UserBase)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.Page[dto.UserResponse]
// @Router /api/users/ [get]
func (uc *UserController) ListUsers(c *gin.Context) {
	page := pageFromQuery(c, uc.pageSize)
	users, total, err := uc.users.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := uc.relations.Subscriptions().SubscribedTo(c.Request.Context(), middleware.CurrentActor(c), ids)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]dto.UserResponse, len(users))
	for i := range users {
		results[i] = dto.NewUserResponse(&users[i], followed[users[i].ID], uc.media)
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}

// GetUser godoc
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} models.APIError
// @Router /api/users/{id}/ [get]
func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := uc.users.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	uc.respondUser(c, user)
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me/ [get]
func (uc *UserController) Me(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	if actor == nil {
		respondError(c, services.ErrNotAuthenticated)
		return
	}
	user, err := uc.users.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	uc.respondUser(c, user)
}

func (uc *UserController) respondUser(c *gin.Context, user *models.User) {
	subscribed, err := uc.relations.Subscriptions().Exists(c.Request.Context(), middleware.CurrentActor(c), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user, subscribed, uc.media))
}

// DeleteMe godoc
// @Summary Delete the current account
// @Description Removes the account with its recipes, relations and tokens.
// @Tags users
// @Accept json
// @Param body body dto.DeleteAccountRequest true "Current password"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me/ [delete]
func (uc *UserController) DeleteMe(c *gin.Context) {
	var req dto.DeleteAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		respondError(c, services.ErrNotAuthenticated)
		return
	}
	user, err := uc.users.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := uc.users.Delete(c.Request.Context(), actor, req.CurrentPassword); err != nil {
		respondError(c, err)
		return
	}
	if user.Avatar != nil {
		uc.media.Delete(*user.Avatar)
	}
	c.Status(http.StatusNoContent)
}

// SetPassword godoc
// @Summary Change the current password
// @Tags users
// @Accept json
// @Param body body dto.SetPasswordRequest true "Passwords"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/set_password/ [post]
func (uc *UserController) SetPassword(c *gin.Context) {
	var req dto.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := uc.users.SetPassword(c.Request.Context(), middleware.CurrentActor(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetAvatar godoc
// @Summary Upload an avatar
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.AvatarRequest true "Base64 image"
// @Success 200 {object} dto.AvatarResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me/avatar/ [put]
func (uc *UserController) SetAvatar(c *gin.Context) {
	var req dto.AvatarRequest
	if !bindJSON(c, &req) {
		return
	}

	rel, err := uc.media.SaveBase64(media.KindAvatars, req.Avatar)
	if err != nil {
		respondError(c, &services.ValidationError{Fields: map[string][]string{"avatar": {err.Error()}}})
		return
	}

	_, old, err := uc.users.SetAvatar(c.Request.Context(), middleware.CurrentActor(c), rel)
	if err != nil {
		uc.media.Delete(rel)
		respondError(c, err)
		return
	}
	uc.media.Delete(old)
	c.JSON(http.StatusOK, dto.AvatarResponse{Avatar: uc.media.URLFor(rel)})
}

// DeleteAvatar godoc
// @Summary Remove the avatar
// @Tags users
// @Success 204
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me/avatar/ [delete]
func (uc *UserController) DeleteAvatar(c *gin.Context) {
	old, err := uc.users.ClearAvatar(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	uc.media.Delete(old)
	c.Status(http.StatusNoContent)
}

// Subscribe godoc
// @Summary Subscribe to an author
// @Tags users
// @Produce json
// @Param id path int true "Author ID"
// @Param recipes_limit query int false "Recipes to include"
// @Success 201 {object} dto.SubscriptionResponse
// @Failure 400 {object} models.APIError "Already subscribed or self subscription"
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe/ [post]
func (uc *UserController) Subscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	card, err := uc.relations.Subscriptions().Add(c.Request.Context(), middleware.CurrentActor(c), id, queryInt(c, "recipes_limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSubscriptionResponse(card, uc.media))
}

// Unsubscribe godoc
// @Summary Unsubscribe from an author
// @Tags users
// @Param id path int true "Author ID"
// @Success 204
// @Failure 400 {object} models.APIError "Not subscribed"
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe/ [delete]
func (uc *UserController) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := uc.relations.Subscriptions().Remove(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary Authors the current user follows
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Recipes per author"
// @Success 200 {object} dto.Page[dto.SubscriptionResponse]
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/subscriptions/ [get]
func (uc *UserController) Subscriptions(c *gin.Context) {
	page := pageFromQuery(c, uc.subscriptionsSize)
	cards, total, err := uc.relations.Subscriptions().List(c.Request.Context(), middleware.CurrentActor(c), page, queryInt(c, "recipes_limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]dto.SubscriptionResponse, len(cards))
	for i := range cards {
		results[i] = dto.NewSubscriptionResponse(&cards[i], uc.media)
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}
