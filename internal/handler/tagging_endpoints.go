package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storycanvas/internal/models"
	"storycanvas/internal/tagging"
)

// tagContent runs the tagging pass over a document for clients that do not
// tag locally.
func (h *Handler) tagContent(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidData(c, "Invalid tagging data", err)
		return
	}

	names := req.IdeaNames
	if len(names) == 0 && req.StoryID != nil {
		active, err := h.ideas.Active(c.Request.Context(), *req.StoryID)
		if err != nil {
			handleServiceError(c, err, "Failed to fetch ideas")
			return
		}
		names = models.IdeaNames(active)
	}

	tagged, matches := tagging.TagWithStats(*req.Content, names)
	c.JSON(http.StatusOK, models.TagResponse{
		Content:   tagged,
		WordCount: tagging.WordCount(*req.Content),
		Changed:   tagged != *req.Content,
		Matches:   matches,
	})
}
