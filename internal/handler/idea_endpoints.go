package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) listIdeas(c *gin.Context) {
	storyID, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid story ID")
		return
	}

	ideas, err := h.ideas.ListByStory(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err, "Failed to fetch ideas")
		return
	}
	c.JSON(http.StatusOK, ideas)
}

func (h *Handler) createIdea(c *gin.Context) {
	var req createIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid idea data", zap.Error(err))
		abortInvalidData(c, "Invalid idea data", err)
		return
	}

	idea := req.toIdea()
	if err := h.ideas.Create(c.Request.Context(), idea); err != nil {
		handleServiceError(c, err, "Failed to create idea")
		return
	}
	c.JSON(http.StatusCreated, idea)
}

func (h *Handler) updateIdea(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid idea ID")
		return
	}

	var req updateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid idea data", zap.Int64("ideaId", id), zap.Error(err))
		abortInvalidData(c, "Invalid idea data", err)
		return
	}

	idea, err := h.ideas.Update(c.Request.Context(), id, req.toPatch())
	if err != nil {
		handleServiceError(c, err, "Failed to update idea")
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *Handler) deleteIdea(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid idea ID")
		return
	}

	if err := h.ideas.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "Failed to delete idea")
		return
	}
	c.Status(http.StatusNoContent)
}
