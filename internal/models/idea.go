package models

import "time"

// Idea is a named, categorized tag for a recurring story element
// (a character, a location, a key element). Name is matched literally,
// case-sensitively, on word boundaries against the story text.
type Idea struct {
	ID          int64     `json:"id" db:"id"`
	StoryID     int64     `json:"storyId" db:"story_id"`
	Category    string    `json:"category" db:"category"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// IdeaPatch is a partial update. Nil fields are left untouched.
type IdeaPatch struct {
	StoryID     *int64
	Category    *string
	Name        *string
	Description *string
	IsActive    *bool
}

// Apply merges the patch over idea. CreatedAt is never changed.
func (p IdeaPatch) Apply(idea *Idea) {
	if p.StoryID != nil {
		idea.StoryID = *p.StoryID
	}
	if p.Category != nil {
		idea.Category = *p.Category
	}
	if p.Name != nil {
		idea.Name = *p.Name
	}
	if p.Description != nil {
		idea.Description = *p.Description
	}
	if p.IsActive != nil {
		idea.IsActive = *p.IsActive
	}
}

// Clone returns a copy safe to hand out of a store.
func (i *Idea) Clone() *Idea {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// IdeaGroup is one category with its ideas, as shown in the sidebar.
type IdeaGroup struct {
	Category string `json:"category"`
	Ideas    []Idea `json:"ideas"`
}

// GroupByCategory groups ideas by category. Categories appear in the order
// of their first occurrence, ideas keep their relative order.
func GroupByCategory(ideas []Idea) []IdeaGroup {
	groups := make([]IdeaGroup, 0)
	index := make(map[string]int)
	for _, idea := range ideas {
		pos, ok := index[idea.Category]
		if !ok {
			pos = len(groups)
			index[idea.Category] = pos
			groups = append(groups, IdeaGroup{Category: idea.Category})
		}
		groups[pos].Ideas = append(groups[pos].Ideas, idea)
	}
	return groups
}

// ActiveIdeas keeps only the ideas marked active, preserving order.
func ActiveIdeas(ideas []Idea) []Idea {
	active := make([]Idea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.IsActive {
			active = append(active, idea)
		}
	}
	return active
}

// IdeaNames returns the names in order.
func IdeaNames(ideas []Idea) []string {
	names := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		names = append(names, idea.Name)
	}
	return names
}
