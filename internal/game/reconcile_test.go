package game

import (
	"reflect"
	"testing"

	"github.com/hyperengineering/turtlesoup/internal/oracle"
)

func TestReconcile_RequiresMarker(t *testing.T) {
	got := Reconcile([]string{"A"}, map[string]struct{}{}, "A", "A")
	if got != nil {
		t.Errorf("Reconcile() = %v, want nil without marker", got)
	}
}

func TestReconcile_VerbatimClues(t *testing.T) {
	clues := []string{"남자는 키가 작다", "우산으로 버튼을 누른다", "7층에서 내린다"}
	response := oracle.MarkerClueFound + "\n우산으로 버튼을 누른다\n남자는 키가 작다"

	got := Reconcile(clues, map[string]struct{}{}, response, "아무 입력")
	want := []string{"남자는 키가 작다", "우산으로 버튼을 누른다"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_SkipsAlreadyFound(t *testing.T) {
	clues := []string{"A", "B"}
	found := map[string]struct{}{"A": {}}
	response := oracle.MarkerClueFound + " A B"

	got := Reconcile(clues, found, response, "")
	if !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("Reconcile() = %v, want [B]", got)
	}
}

func TestReconcile_IsIdempotent(t *testing.T) {
	clues := []string{"X", "Y"}
	found := map[string]struct{}{}
	response := oracle.MarkerClueFound + " X"

	for i := 0; i < 2; i++ {
		for _, c := range Reconcile(clues, found, response, "zzz") {
			found[c] = struct{}{}
		}
	}
	if len(found) != 1 {
		t.Errorf("found = %v, want only X", found)
	}
	if _, ok := found["X"]; !ok {
		t.Error("X not credited")
	}
}

func TestReconcile_LexicalFallback(t *testing.T) {
	clues := []string{"the man was shipwrecked", "soup tasted different"}
	response := oracle.MarkerClueFound + " (paraphrased)"

	got := Reconcile(clues, map[string]struct{}{}, response, "The MAN was lost at sea")
	if !reflect.DeepEqual(got, []string{"the man was shipwrecked"}) {
		t.Errorf("Reconcile() = %v, want first clue via token overlap", got)
	}
}

func TestReconcile_FallbackNotUsedWhenVerbatimHit(t *testing.T) {
	clues := []string{"alpha beta", "gamma"}
	response := oracle.MarkerClueFound + " gamma"

	got := Reconcile(clues, map[string]struct{}{}, response, "alpha beta")
	if !reflect.DeepEqual(got, []string{"gamma"}) {
		t.Errorf("Reconcile() = %v, want [gamma] only", got)
	}
}

func TestLexicalMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"red blue green", "blue green yellow", true},
		{"Red Blue", "red BLUE", true},
		{"shipwreck", "the shipwrecked sailor", true},
		{"the sailor was shipwrecked", "shipwreck", true},
		{"남자가 작다", "남자는 키가 작다", true},
		{"cat", "dog", false},
		{"", "dog", false},
	}

	for _, tt := range tests {
		if got := lexicalMatch(tt.a, tt.b); got != tt.want {
			t.Errorf("lexicalMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
