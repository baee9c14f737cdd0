// Package catalog holds the read-only registry of playable episodes.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates no episode matches the requested title.
	ErrNotFound = errors.New("episode not found")
	// ErrInvalidEpisode indicates an episode definition failed validation.
	ErrInvalidEpisode = errors.New("invalid episode")
)

// Episode is one complete scenario definition.
// Episodes are immutable once the catalog is built.
type Episode struct {
	Title    string   `yaml:"title" json:"title"`
	Question string   `yaml:"question" json:"question"`
	Answer   string   `yaml:"answer" json:"-"`
	Clues    []string `yaml:"clues" json:"-"`
	HintFree []string `yaml:"hint_free" json:"-"`
	HintPaid []string `yaml:"hint_paid" json:"-"`
}

// Validate checks the structural invariants of an episode: a title, a
// question, and a non-empty clue list without duplicates.
func (e Episode) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidEpisode)
	}
	if strings.TrimSpace(e.Question) == "" {
		return fmt.Errorf("%w: %q has no question", ErrInvalidEpisode, e.Title)
	}
	if len(e.Clues) == 0 {
		return fmt.Errorf("%w: %q has no clues", ErrInvalidEpisode, e.Title)
	}
	seen := make(map[string]struct{}, len(e.Clues))
	for i, clue := range e.Clues {
		if strings.TrimSpace(clue) == "" {
			return fmt.Errorf("%w: %q clue %d is empty", ErrInvalidEpisode, e.Title, i)
		}
		if _, dup := seen[clue]; dup {
			return fmt.Errorf("%w: %q has duplicate clue %q", ErrInvalidEpisode, e.Title, clue)
		}
		seen[clue] = struct{}{}
	}
	return nil
}

// clone returns a deep copy so callers can never mutate catalog contents.
func (e Episode) clone() Episode {
	e.Clues = append([]string(nil), e.Clues...)
	e.HintFree = append([]string(nil), e.HintFree...)
	e.HintPaid = append([]string(nil), e.HintPaid...)
	return e
}
