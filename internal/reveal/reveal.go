// Package reveal produces the typewriter effect used to show generated text:
// a sequence of growing prefixes, one character per tick.
package reveal

import (
	"context"
	"time"
)

// DefaultInterval is the delay between two characters.
const DefaultInterval = 30 * time.Millisecond

// Frame is one step of the reveal.
type Frame struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Done  bool   `json:"done"`
}

// Sequence reveals one text. It is safe to start several Frames streams on
// the same Sequence.
type Sequence struct {
	runes    []rune
	interval time.Duration
}

// New returns a sequence for text. A non-positive interval means DefaultInterval.
func New(text string, interval time.Duration) *Sequence {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sequence{runes: []rune(text), interval: interval}
}

// Len is the number of frames, one per rune.
func (s *Sequence) Len() int { return len(s.runes) }

// Duration is the time a full reveal takes.
func (s *Sequence) Duration() time.Duration {
	return time.Duration(len(s.runes)) * s.interval
}

func (s *Sequence) frame(i int) Frame {
	return Frame{Index: i, Text: string(s.runes[:i+1]), Done: i == len(s.runes)-1}
}

// Frames emits one frame per tick on a single ticker. The channel is closed
// after the last frame or as soon as ctx is cancelled.
func (s *Sequence) Frames(ctx context.Context) <-chan Frame {
	ch := make(chan Frame)
	go func() {
		defer close(ch)
		if len(s.runes) == 0 {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for i := range s.runes {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case <-ctx.Done():
				return
			case ch <- s.frame(i):
			}
		}
	}()
	return ch
}

// All returns every frame without waiting.
func All(text string) []Frame {
	s := New(text, DefaultInterval)
	frames := make([]Frame, 0, s.Len())
	for i := range s.runes {
		frames = append(frames, s.frame(i))
	}
	return frames
}
