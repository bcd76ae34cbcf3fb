package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storycanvas/internal/models"
)

// handleServiceError maps service errors to a status code. internalMessage is
// used for everything that is not a known client error.
func handleServiceError(c *gin.Context, err error, internalMessage string) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrStoryNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Message: "Story not found"}
	case errors.Is(err, models.ErrIdeaNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Message: "Idea not found"}
	case errors.Is(err, models.ErrGenerationNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Message: "Generation not found"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Message: "Not found"}
	case errors.Is(err, models.ErrGenerationInProgress):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Message: "Generation already in progress", Error: err.Error()}
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Message: "Invalid input", Error: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError",
			zap.String("path", c.FullPath()), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Message: internalMessage, Error: err.Error()}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
