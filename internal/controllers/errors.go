package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// respondError maps a service error to its status code and APIError body.
func respondError(ctx *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Validation failed", fieldDetails(verr.Fields)))
		return
	}

	status, code := http.StatusInternalServerError, models.ErrInternalServer
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		status, code = http.StatusUnauthorized, models.ErrUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, models.ErrForbidden
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, models.ErrNotFound
	case errors.Is(err, services.ErrDuplicate):
		status, code = http.StatusBadRequest, models.ErrDuplicateRelation
	case errors.Is(err, services.ErrRelationNotFound):
		status, code = http.StatusBadRequest, models.ErrRelationNotFound
	case errors.Is(err, services.ErrSelfReference):
		status, code = http.StatusBadRequest, models.ErrSelfSubscription
	case errors.Is(err, services.ErrConflict):
		status, code = http.StatusBadRequest, models.ErrConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status, code = http.StatusBadRequest, models.ErrBadRequest
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": ctx.Request.Method,
			"path":   ctx.Request.URL.Path,
		}).Error("Request failed")
		ctx.JSON(status, models.NewAPIError(code, "Internal server error"))
		return
	}
	ctx.JSON(status, models.NewAPIError(code, err.Error()))
}

func fieldDetails(fields map[string][]string) map[string]interface{} {
	details := make(map[string]interface{}, len(fields))
	for field, msgs := range fields {
		details[field] = msgs
	}
	return details
}

// bindJSON binds the request body into obj and answers 400 when it fails.
func bindJSON(ctx *gin.Context, obj interface{}) bool {
	err := ctx.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Validation failed",
			fieldDetails(dto.FieldErrors(verrs))))
		return false
	}
	ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Invalid request body"))
	return false
}

// pathID parses a positive integer path parameter; it answers 404 otherwise.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Not found"))
		return 0, false
	}
	return uint(id), true
}

// queryInt reads a non-negative integer query parameter, falling back to def.
func queryInt(ctx *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(ctx.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// queryBool reads 1/0/true/false; anything else means "not set".
func queryBool(ctx *gin.Context, name string) *bool {
	v, err := strconv.ParseBool(ctx.Query(name))
	if err != nil {
		return nil
	}
	return &v
}
