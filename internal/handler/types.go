package handler

import "storycanvas/internal/models"

// storyRequest is the body of POST /stories and PUT /stories/:id.
// Every field is optional; userId is accepted as an alias of ownerId.
type storyRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	OwnerID   *int64  `json:"ownerId" binding:"omitempty,gte=1"`
	UserID    *int64  `json:"userId" binding:"omitempty,gte=1"`
	WordCount *int    `json:"wordCount" binding:"omitempty,gte=0"`
}

func (r storyRequest) toPatch() models.StoryPatch {
	owner := r.OwnerID
	if owner == nil {
		owner = r.UserID
	}
	return models.StoryPatch{
		Title:     r.Title,
		Content:   r.Content,
		OwnerID:   owner,
		WordCount: r.WordCount,
	}
}

// createIdeaRequest is the body of POST /ideas.
type createIdeaRequest struct {
	StoryID     *int64  `json:"storyId" binding:"required,gte=1"`
	Category    *string `json:"category" binding:"required,min=1"`
	Name        *string `json:"name" binding:"required,min=1"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (r createIdeaRequest) toIdea() *models.Idea {
	idea := &models.Idea{
		StoryID:  *r.StoryID,
		Category: *r.Category,
		Name:     *r.Name,
		IsActive: true,
	}
	if r.Description != nil {
		idea.Description = *r.Description
	}
	if r.IsActive != nil {
		idea.IsActive = *r.IsActive
	}
	return idea
}

// updateIdeaRequest is the body of PUT /ideas/:id.
type updateIdeaRequest struct {
	StoryID     *int64  `json:"storyId" binding:"omitempty,gte=1"`
	Category    *string `json:"category" binding:"omitempty,min=1"`
	Name        *string `json:"name" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (r updateIdeaRequest) toPatch() models.IdeaPatch {
	return models.IdeaPatch{
		StoryID:     r.StoryID,
		Category:    r.Category,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

// generateRequest is the body of POST /stories/:id/generate.
type generateRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	UseIdeas bool   `json:"useIdeas"`
	Style    string `json:"style" binding:"omitempty,oneof=detailed concise poetic"`
}

// tagRequest is the body of POST /tagging. When StoryID is set and IdeaNames
// is empty, the active ideas of that story are used.
type tagRequest struct {
	Content   *string  `json:"content" binding:"required"`
	IdeaNames []string `json:"ideaNames"`
	StoryID   *int64   `json:"storyId" binding:"omitempty,gte=1"`
}
