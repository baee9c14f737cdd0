package game

import (
	"strings"

	"github.com/hyperengineering/turtlesoup/internal/oracle"
)

// Reconcile returns the clues newly credited by an oracle response, in
// episode order. Nothing is credited unless the response carries the
// clue-found marker. Clues quoted verbatim in the response win; only when
// none are quoted does the lexical fallback compare the player's input
// against each clue still missing.
func Reconcile(clues []string, found map[string]struct{}, response, input string) []string {
	if !strings.Contains(response, oracle.MarkerClueFound) {
		return nil
	}

	var credited []string
	for _, clue := range clues {
		if _, ok := found[clue]; ok {
			continue
		}
		if strings.Contains(response, clue) {
			credited = append(credited, clue)
		}
	}
	if len(credited) > 0 {
		return credited
	}

	for _, clue := range clues {
		if _, ok := found[clue]; ok {
			continue
		}
		if lexicalMatch(input, clue) {
			credited = append(credited, clue)
		}
	}
	return credited
}

// lexicalMatch reports whether a and b share at least two lowercase
// whitespace tokens, or a token of either occurs inside the other.
func lexicalMatch(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	ta, tb := strings.Fields(a), strings.Fields(b)

	set := make(map[string]struct{}, len(ta))
	for _, tok := range ta {
		set[tok] = struct{}{}
	}
	shared := make(map[string]struct{})
	for _, tok := range tb {
		if _, ok := set[tok]; ok {
			shared[tok] = struct{}{}
		}
	}
	if len(shared) >= 2 {
		return true
	}

	for _, tok := range ta {
		if strings.Contains(b, tok) {
			return true
		}
	}
	for _, tok := range tb {
		if strings.Contains(a, tok) {
			return true
		}
	}
	return false
}
