package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testEpisodes() []Episode {
	return []Episode{
		{
			Title:    "first",
			Question: "why?",
			Answer:   "because",
			Clues:    []string{"A", "B"},
			HintFree: []string{"H1"},
			HintPaid: []string{"P1", "P2"},
		},
		{
			Title:    "second",
			Question: "how?",
			Answer:   "somehow",
			Clues:    []string{"C"},
		},
	}
}

func TestNew_PreservesOrder(t *testing.T) {
	c, err := New(testEpisodes())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	titles := c.ListTitles()
	if len(titles) != 2 || titles[0] != "first" || titles[1] != "second" {
		t.Errorf("ListTitles() = %v, want [first second]", titles)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestNew_RejectsInvalidEpisodes(t *testing.T) {
	tests := []struct {
		name     string
		episodes []Episode
	}{
		{"empty title", []Episode{{Title: " ", Question: "q", Clues: []string{"A"}}}},
		{"empty question", []Episode{{Title: "t", Clues: []string{"A"}}}},
		{"no clues", []Episode{{Title: "t", Question: "q"}}},
		{"blank clue", []Episode{{Title: "t", Question: "q", Clues: []string{"A", ""}}}},
		{"duplicate clue", []Episode{{Title: "t", Question: "q", Clues: []string{"A", "A"}}}},
		{"duplicate title", []Episode{
			{Title: "t", Question: "q", Clues: []string{"A"}},
			{Title: "t", Question: "q2", Clues: []string{"B"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.episodes)
			if !errors.Is(err, ErrInvalidEpisode) {
				t.Errorf("New() error = %v, want ErrInvalidEpisode", err)
			}
		})
	}
}

func TestNew_CluesAreCaseSensitive(t *testing.T) {
	_, err := New([]Episode{{Title: "t", Question: "q", Clues: []string{"a", "A"}}})
	if err != nil {
		t.Errorf("New() error = %v, want nil for clues differing only in case", err)
	}
}

func TestFind_ExactMatch(t *testing.T) {
	c, err := New(testEpisodes())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ep, err := c.Find("second")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if ep.Question != "how?" {
		t.Errorf("Question = %q, want %q", ep.Question, "how?")
	}

	if _, err := c.Find("Second"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(Second) error = %v, want ErrNotFound", err)
	}
	if _, err := c.Find(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(\"\") error = %v, want ErrNotFound", err)
	}
}

func TestFind_ReturnsCopy(t *testing.T) {
	c, err := New(testEpisodes())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ep, _ := c.Find("first")
	ep.Clues[0] = "mutated"

	again, _ := c.Find("first")
	if again.Clues[0] != "A" {
		t.Errorf("catalog was mutated through returned episode: %q", again.Clues[0])
	}
}

func TestPreview(t *testing.T) {
	c, err := New(testEpisodes())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	previews := c.Preview()
	if len(previews) != 2 {
		t.Fatalf("len(Preview()) = %d, want 2", len(previews))
	}
	if previews[0].ClueCount != 2 || previews[1].ClueCount != 1 {
		t.Errorf("clue counts = %d,%d, want 2,1", previews[0].ClueCount, previews[1].ClueCount)
	}
}

func TestDefault_LoadsEmbeddedEpisodes(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}
	for _, title := range c.ListTitles() {
		ep, err := c.Find(title)
		if err != nil {
			t.Errorf("Find(%q) error = %v", title, err)
			continue
		}
		if ep.Answer == "" {
			t.Errorf("episode %q has no answer", title)
		}
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.yaml")
	content := `episodes:
  - title: "custom"
    question: "q"
    answer: "a"
    clues: ["one", "two"]
    hint_paid: ["p"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ep, err := c.Find("custom")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(ep.Clues) != 2 || len(ep.HintPaid) != 1 || len(ep.HintFree) != 0 {
		t.Errorf("episode = %+v, want 2 clues, 1 paid hint, 0 free hints", ep)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("episodes: [")); err == nil {
		t.Fatal("Parse() expected error for malformed YAML")
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	def, _ := Default()
	if c.Len() != def.Len() {
		t.Errorf("Len() = %d, want %d", c.Len(), def.Len())
	}
}
