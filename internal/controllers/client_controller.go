package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ClientController lets staff register confidential OAuth2 clients for
// server-to-server access with the client_credentials grant.
type ClientController struct {
	clientService services.ClientService
}

func NewClientController(clientService services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

// CreateClient godoc
// @Summary Create OAuth2 client
// @Description Register a confidential client. The secret is only returned in this response.
// @Tags OAuth2 Clients
// @Accept json
// @Produce json
// @Param client body dto.ClientCreateRequest true "Client details"
// @Success 201 {object} dto.ClientCreatedResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/clients/ [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	var req dto.ClientCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	client, secret, err := cc.clientService.CreateClient(c.Request.Context(), middleware.CurrentActor(c), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ClientCreatedResponse{
		ClientResponse: dto.NewClientResponse(client),
		ClientSecret:   secret,
	})
}

// ListClients godoc
// @Summary List OAuth2 clients
// @Description Clients registered by the authenticated staff user
// @Tags OAuth2 Clients
// @Produce json
// @Success 200 {array} dto.ClientResponse
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/clients/ [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	clients, err := cc.clientService.ListClients(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.ClientResponse, len(clients))
	for i := range clients {
		out[i] = dto.NewClientResponse(&clients[i])
	}
	c.JSON(http.StatusOK, out)
}

// DeleteClient godoc
// @Summary Delete OAuth2 client
// @Description Delete a client registered by the authenticated staff user
// @Tags OAuth2 Clients
// @Param id path string true "Client ID"
// @Success 204 "Client deleted successfully"
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/clients/{id}/ [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	if actor == nil {
		respondError(c, services.ErrNotAuthenticated)
		return
	}

	client, err := cc.clientService.GetClientByID(c.Request.Context(), c.Param("id"))
	if err == nil && client.UserID != actor.UserID {
		err = services.ErrNotFound
	}
	if err == nil {
		err = cc.clientService.DeleteClient(c.Request.Context(), client.ID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
