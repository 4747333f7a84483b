// Package extract provides best-effort entity extraction from free text:
// order IDs by digit scanning and hotel names by token-overlap scoring.
package extract

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// ErrNoOrderID reports that no digit run could be found in the text.
var ErrNoOrderID = errors.New("no order id found in text")

// OrderID pulls an order ID out of free text. Tokens are split on whitespace
// after stripping '#' and ':'; the first all-digit token wins. When no token
// is purely digits, the first non-empty digit run inside a token is used.
func OrderID(text string) (string, error) {
	if text == "" {
		return "", ErrNoOrderID
	}

	cleaned := strings.NewReplacer("#", " ", ":", " ").Replace(text)
	tokens := strings.Fields(cleaned)

	for _, tok := range tokens {
		if isDigits(tok) {
			return tok, nil
		}
	}

	// Patterns like ID123 or O-456: keep only the digits.
	for _, tok := range tokens {
		var digits strings.Builder
		for _, r := range tok {
			if unicode.IsDigit(r) {
				digits.WriteRune(r)
			}
		}
		if digits.Len() > 0 {
			return digits.String(), nil
		}
	}

	return "", ErrNoOrderID
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Candidate is a scored hotel-name match.
type Candidate struct {
	// Name is the candidate's display name.
	Name string
	// Score is shared-token-count divided by the candidate's own token count.
	Score float64
}

// HotelCandidates scores each known display name against the message by
// lower-case alphanumeric token overlap and ranks descending. Candidates with
// zero overlap are excluded entirely. Ties break lexicographically by name so
// ranking is deterministic regardless of input order.
func HotelCandidates(text string, names []string) []Candidate {
	msgTokens := tokenSet(text)
	if len(msgTokens) == 0 {
		return nil
	}

	var candidates []Candidate
	for _, name := range names {
		nameTokens := tokenSet(name)
		if len(nameTokens) == 0 {
			continue
		}

		overlap := 0
		for tok := range nameTokens {
			if _, ok := msgTokens[tok]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		candidates = append(candidates, Candidate{
			Name:  name,
			Score: float64(overlap) / float64(len(nameTokens)),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates
}

// BestHotel returns the top-ranked candidate name, if any.
func BestHotel(text string, names []string) (string, bool) {
	candidates := HotelCandidates(text, names)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].Name, true
}

func tokenSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	var tok strings.Builder
	flush := func() {
		if tok.Len() > 0 {
			out[tok.String()] = struct{}{}
			tok.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			tok.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}
