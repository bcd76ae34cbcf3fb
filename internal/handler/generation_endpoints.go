package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storycanvas/internal/models"
	"storycanvas/internal/service"
)

func (h *Handler) generate(c *gin.Context) {
	storyID, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid story ID")
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) || onlyMissingPrompt(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Message: "Prompt is required"})
			return
		}
		abortInvalidData(c, "Invalid generation data", err)
		return
	}

	style, err := models.ParseGenerationStyle(req.Style)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid style", Error: err.Error()})
		return
	}

	gen, result, err := h.generations.Generate(c.Request.Context(), service.GenerateInput{
		StoryID:  storyID,
		Prompt:   req.Prompt,
		UseIdeas: req.UseIdeas,
		Style:    style,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to generate content")
		return
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		GeneratedContent: gen.GeneratedContent,
		ID:               gen.ID,
		Source:           string(result.Source),
	})
}

func (h *Handler) listGenerations(c *gin.Context) {
	storyID, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid story ID")
		return
	}

	gens, err := h.generations.ListByStory(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err, "Failed to fetch generations")
		return
	}
	c.JSON(http.StatusOK, gens)
}

func (h *Handler) getGeneration(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid generation ID")
		return
	}

	gen, err := h.generations.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to fetch generation")
		return
	}
	c.JSON(http.StatusOK, gen)
}

// onlyMissingPrompt reports whether the prompt is the only field that failed
// validation.
func onlyMissingPrompt(err error) bool {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return false
	}
	for _, fe := range validationErrs {
		if fe.Field() != "prompt" || fe.Tag() != "required" {
			return false
		}
	}
	return len(validationErrs) > 0
}
