package quiz

import "strings"

// shortInputLimit is the normalized length below which only exact matches
// count. Two-letter inputs like "la" are too ambiguous to fuzzy-match.
const shortInputLimit = 3

// MatchAnswer decides which candidate, if any, the user's input refers to.
// Candidates are evaluated in order and the first one satisfying any rule
// wins, so results are deterministic. Duplicate detection ("already found")
// is the caller's job; this only answers "which one".
func MatchAnswer(input string, candidates []string) (string, bool) {
	normalized := Normalize(input)
	if normalized == "" {
		return "", false
	}

	if len([]rune(normalized)) < shortInputLimit {
		for _, candidate := range candidates {
			if Normalize(candidate) == normalized {
				return candidate, true
			}
		}
		return "", false
	}

	inputTokens := tokenize(normalized, 1)

	for _, candidate := range candidates {
		normalizedCandidate := Normalize(candidate)
		if normalizedCandidate == "" {
			continue
		}

		// Containment either direction: "hipertension arterial" matches
		// "hipertension arterial sistemica" and vice versa.
		if strings.Contains(normalizedCandidate, normalized) ||
			strings.Contains(normalized, normalizedCandidate) {
			return candidate, true
		}

		candidateTokens := tokenize(normalizedCandidate, 2)

		if tokenOverlap(inputTokens, candidateTokens) {
			return candidate, true
		}

		if nearMiss(inputTokens, candidateTokens) {
			return candidate, true
		}
	}

	return "", false
}

// tokenize splits a normalized string on whitespace, keeping only tokens
// longer than minLen runes.
func tokenize(normalized string, minLen int) []string {
	fields := strings.Fields(normalized)
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// tokenOverlap reports whether at least half (rounded up) of the input
// tokens appear in the candidate, where "appear" is substring containment
// in either direction.
func tokenOverlap(inputTokens, candidateTokens []string) bool {
	if len(inputTokens) == 0 {
		return false
	}

	matching := 0
	for _, inputToken := range inputTokens {
		for _, candidateToken := range candidateTokens {
			if strings.Contains(candidateToken, inputToken) ||
				strings.Contains(inputToken, candidateToken) {
				matching++
				break
			}
		}
	}

	required := (len(inputTokens) + 1) / 2
	return matching >= required
}

// nearMiss reports whether any candidate/input token pair is within two
// character substitutions of each other (lengths within two, missing
// positions counted as mismatches). Catches misspellings the normalizer
// can't fix, like "palpasion" for "palpacion".
func nearMiss(inputTokens, candidateTokens []string) bool {
	for _, candidateToken := range candidateTokens {
		for _, inputToken := range inputTokens {
			if tokensSimilar(candidateToken, inputToken) {
				return true
			}
		}
	}
	return false
}

func tokensSimilar(a, b string) bool {
	ra, rb := []rune(a), []rune(b)

	diff := len(ra) - len(rb)
	if diff < -2 || diff > 2 {
		return false
	}

	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}

	differences := 0
	for i := 0; i < longer; i++ {
		if i >= len(ra) || i >= len(rb) || ra[i] != rb[i] {
			differences++
			if differences > 2 {
				return false
			}
		}
	}

	return true
}
