// Package memory is the default in-process backend. Records live in maps
// guarded by one RWMutex per store; ids come from per-store counters that
// start at 1 and are never reused.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"storycanvas/internal/models"
	"storycanvas/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Clock returns the current time. Tests replace it to freeze time.
type Clock func() time.Time

// Store holds the three in-memory repositories.
type Store struct {
	stories     *StoryStore
	ideas       *IdeaStore
	generations *GenerationStore
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now Clock
}

// WithClock overrides time.Now for every repository of the store.
func WithClock(now Clock) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return &Store{
		stories:     NewStoryStore(o.now),
		ideas:       NewIdeaStore(o.now),
		generations: NewGenerationStore(o.now),
	}
}

func (s *Store) Stories() repository.StoryRepository          { return s.stories }
func (s *Store) Ideas() repository.IdeaRepository             { return s.ideas }
func (s *Store) Generations() repository.GenerationRepository { return s.generations }

// Close is a no-op; data is dropped with the process.
func (s *Store) Close(_ context.Context) error { return nil }

// ---------------------------------------------------------------------------
// Stories
// ---------------------------------------------------------------------------

// StoryStore keeps stories in memory.
type StoryStore struct {
	mu     sync.RWMutex
	now    Clock
	nextID int64
	items  map[int64]*models.Story
}

func NewStoryStore(now Clock) *StoryStore {
	if now == nil {
		now = time.Now
	}
	return &StoryStore{now: now, nextID: 1, items: make(map[int64]*models.Story)}
}

func (s *StoryStore) List(_ context.Context) ([]*models.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Story, 0, len(s.items))
	for _, st := range s.items {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *StoryStore) Get(_ context.Context, id int64) (*models.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *StoryStore) Create(_ context.Context, story *models.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	story.ApplyDefaults()
	story.ID = s.nextID
	s.nextID++
	now := s.now()
	story.CreatedAt = now
	story.UpdatedAt = now
	s.items[story.ID] = story.Clone()
	return nil
}

func (s *StoryStore) Update(_ context.Context, id int64, patch models.StoryPatch) (*models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	patch.Apply(st)
	st.UpdatedAt = after(st.UpdatedAt, s.now())
	return st.Clone(), nil
}

func (s *StoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

// after returns now, or prev+1ns when the clock has not moved past prev.
func after(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

// ---------------------------------------------------------------------------
// Ideas
// ---------------------------------------------------------------------------

// IdeaStore keeps ideas in memory.
type IdeaStore struct {
	mu     sync.RWMutex
	now    Clock
	nextID int64
	items  map[int64]*models.Idea
}

func NewIdeaStore(now Clock) *IdeaStore {
	if now == nil {
		now = time.Now
	}
	return &IdeaStore{now: now, nextID: 1, items: make(map[int64]*models.Idea)}
}

// ListByStory returns the ideas of a story in insertion order. Ids grow
// monotonically so id order is insertion order.
func (s *IdeaStore) ListByStory(_ context.Context, storyID int64) ([]*models.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Idea, 0)
	for _, idea := range s.items {
		if idea.StoryID == storyID {
			out = append(out, idea.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *IdeaStore) Get(_ context.Context, id int64) (*models.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idea, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return idea.Clone(), nil
}

func (s *IdeaStore) Create(_ context.Context, idea *models.Idea) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea.ID = s.nextID
	s.nextID++
	idea.CreatedAt = s.now()
	s.items[idea.ID] = idea.Clone()
	return nil
}

func (s *IdeaStore) Update(_ context.Context, id int64, patch models.IdeaPatch) (*models.Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	patch.Apply(idea)
	return idea.Clone(), nil
}

func (s *IdeaStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

// ---------------------------------------------------------------------------
// Generations
// ---------------------------------------------------------------------------

// GenerationStore is an append-only in-memory log of generations.
type GenerationStore struct {
	mu     sync.RWMutex
	now    Clock
	nextID int64
	items  map[int64]*models.ContentGeneration
}

func NewGenerationStore(now Clock) *GenerationStore {
	if now == nil {
		now = time.Now
	}
	return &GenerationStore{now: now, nextID: 1, items: make(map[int64]*models.ContentGeneration)}
}

func (s *GenerationStore) ListByStory(_ context.Context, storyID int64) ([]*models.ContentGeneration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ContentGeneration, 0)
	for _, g := range s.items {
		if g.StoryID == storyID {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *GenerationStore) Get(_ context.Context, id int64) (*models.ContentGeneration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *GenerationStore) Create(_ context.Context, gen *models.ContentGeneration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen.ID = s.nextID
	s.nextID++
	gen.CreatedAt = s.now()
	if gen.UsedIdeas == nil {
		gen.UsedIdeas = []models.Idea{}
	}
	s.items[gen.ID] = gen.Clone()
	return nil
}
