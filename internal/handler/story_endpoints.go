package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) listStories(c *gin.Context) {
	stories, err := h.stories.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to fetch stories")
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) getStory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid story ID")
		return
	}

	story, err := h.stories.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to fetch story")
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) createStory(c *gin.Context) {
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid story data", zap.Error(err))
		abortInvalidData(c, "Invalid story data", err)
		return
	}

	story, err := h.stories.Create(c.Request.Context(), req.toPatch())
	if err != nil {
		handleServiceError(c, err, "Failed to create story")
		return
	}
	c.JSON(http.StatusCreated, story)
}

func (h *Handler) updateStory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid story ID")
		return
	}

	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid story data", zap.Int64("storyId", id), zap.Error(err))
		abortInvalidData(c, "Invalid story data", err)
		return
	}

	story, err := h.stories.Update(c.Request.Context(), id, req.toPatch())
	if err != nil {
		handleServiceError(c, err, "Failed to update story")
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) deleteStory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid story ID")
		return
	}

	if err := h.stories.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "Failed to delete story")
		return
	}
	c.Status(http.StatusNoContent)
}
