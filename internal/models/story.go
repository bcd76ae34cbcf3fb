package models

import "time"

const (
	// DefaultStoryTitle is used when a story is created without a title.
	DefaultStoryTitle = "Untitled Story"
	// DefaultOwnerID is the single local user every story belongs to.
	DefaultOwnerID int64 = 1
)

// Story is a rich-text document being written.
type Story struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	OwnerID   int64     `json:"ownerId" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	WordCount int       `json:"wordCount" db:"word_count"`
}

// ApplyDefaults fills zero fields with the values a new story starts with.
// Content already defaults to the empty string.
func (s *Story) ApplyDefaults() {
	if s.Title == "" {
		s.Title = DefaultStoryTitle
	}
	if s.OwnerID == 0 {
		s.OwnerID = DefaultOwnerID
	}
	if s.WordCount < 0 {
		s.WordCount = 0
	}
}

// StoryPatch is a partial update. Nil fields are left untouched.
type StoryPatch struct {
	Title     *string
	Content   *string
	OwnerID   *int64
	WordCount *int
}

// Apply merges the patch over s. UpdatedAt is the store's responsibility.
func (p StoryPatch) Apply(s *Story) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Content != nil {
		s.Content = *p.Content
	}
	if p.OwnerID != nil {
		s.OwnerID = *p.OwnerID
	}
	if p.WordCount != nil {
		s.WordCount = *p.WordCount
	}
}

// Clone returns a copy safe to hand out of a store.
func (s *Story) Clone() *Story {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
