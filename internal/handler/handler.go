package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storycanvas/internal/models"
	"storycanvas/internal/reveal"
	"storycanvas/internal/service"
)

// Handler serves the REST API under /api.
type Handler struct {
	stories     *service.StoryService
	ideas       *service.IdeaService
	generations *service.GenerationService

	revealInterval     time.Duration
	generateMiddleware []gin.HandlerFunc
	logger             *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRevealInterval sets the delay between two reveal frames.
func WithRevealInterval(d time.Duration) Option {
	return func(h *Handler) { h.revealInterval = d }
}

// WithGenerateMiddleware runs mw in front of the generate endpoint only,
// typically a rate limiter.
func WithGenerateMiddleware(mw ...gin.HandlerFunc) Option {
	return func(h *Handler) { h.generateMiddleware = append(h.generateMiddleware, mw...) }
}

func New(
	stories *service.StoryService,
	ideas *service.IdeaService,
	generations *service.GenerationService,
	logger *zap.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		stories:        stories,
		ideas:          ideas,
		generations:    generations,
		revealInterval: reveal.DefaultInterval,
		logger:         logger.Named("Handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	registerValidatorTagNames()
	return h
}

// RegisterRoutes mounts every endpoint under /api.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")

	stories := api.Group("/stories")
	{
		stories.GET("", h.listStories)
		stories.POST("", h.createStory)
		stories.GET("/:id", h.getStory)
		stories.PUT("/:id", h.updateStory)
		stories.DELETE("/:id", h.deleteStory)

		// gin requires the same wildcard name on one segment, so the nested
		// resources read :id as the story id.
		stories.GET("/:id/ideas", h.listIdeas)
		stories.GET("/:id/generations", h.listGenerations)
		generate := append(append([]gin.HandlerFunc{}, h.generateMiddleware...), h.generate)
		stories.POST("/:id/generate", generate...)
	}

	ideas := api.Group("/ideas")
	{
		ideas.POST("", h.createIdea)
		ideas.PUT("/:id", h.updateIdea)
		ideas.DELETE("/:id", h.deleteIdea)
	}

	api.GET("/generations/:id", h.getGeneration)
	api.GET("/generations/:id/reveal", h.revealGeneration)
	api.POST("/tagging", h.tagContent)
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func abortInvalidID(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Message: message})
}
