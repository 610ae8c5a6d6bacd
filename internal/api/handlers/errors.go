package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrashed98/blueprint-cms/internal/core/auth"
	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
	"github.com/mrashed98/blueprint-cms/internal/core/validation"
)

// respondError maps service errors to status codes. Anything unrecognised is
// attached to the context for ErrorHandler to log and answer with a 500.
func respondError(c *gin.Context, err error) {
	if verrs := validation.GetValidationErrors(err); verrs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": verrs.Error(), "details": verrs.Errors})
		return
	}

	switch {
	case errors.Is(err, content.ErrOrderInvalid),
		errors.Is(err, locale.ErrUnsupported),
		errors.Is(err, auth.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, blueprint.ErrSystemBlueprint),
		errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, blueprint.ErrNotFound),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, content.ErrSectionNotFound),
		errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, blueprint.ErrAlreadyExists),
		errors.Is(err, blueprint.ErrInUse),
		errors.Is(err, content.ErrSlugExists),
		errors.Is(err, content.ErrSingleSectionBlueprint),
		errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrBlueprintNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
