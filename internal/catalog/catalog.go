package catalog

import (
	"fmt"

	"github.com/samber/lo"
)

// Preview summarizes an episode for the selection screen.
type Preview struct {
	Title     string `json:"title"`
	Question  string `json:"question"`
	ClueCount int    `json:"clue_count"`
}

// Catalog is an ordered, read-only set of episodes keyed by title.
// It is safe for concurrent use because nothing mutates it after New returns.
type Catalog struct {
	episodes []Episode
	byTitle  map[string]int
}

// New builds a catalog from the given episodes, preserving their order.
// Every episode must validate and titles must be unique.
func New(episodes []Episode) (*Catalog, error) {
	c := &Catalog{
		episodes: make([]Episode, 0, len(episodes)),
		byTitle:  make(map[string]int, len(episodes)),
	}
	for _, ep := range episodes {
		if err := ep.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byTitle[ep.Title]; dup {
			return nil, fmt.Errorf("%w: duplicate title %q", ErrInvalidEpisode, ep.Title)
		}
		c.byTitle[ep.Title] = len(c.episodes)
		c.episodes = append(c.episodes, ep.clone())
	}
	return c, nil
}

// ListTitles returns episode titles in catalog order.
func (c *Catalog) ListTitles() []string {
	return lo.Map(c.episodes, func(ep Episode, _ int) string {
		return ep.Title
	})
}

// Find returns the episode whose title matches exactly.
// Returns ErrNotFound when no episode matches.
func (c *Catalog) Find(title string) (Episode, error) {
	i, ok := c.byTitle[title]
	if !ok {
		return Episode{}, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	return c.episodes[i].clone(), nil
}

// Preview returns a selection-screen summary of every episode.
func (c *Catalog) Preview() []Preview {
	return lo.Map(c.episodes, func(ep Episode, _ int) Preview {
		return Preview{
			Title:     ep.Title,
			Question:  ep.Question,
			ClueCount: len(ep.Clues),
		}
	})
}

// Len returns the number of episodes.
func (c *Catalog) Len() int {
	return len(c.episodes)
}
