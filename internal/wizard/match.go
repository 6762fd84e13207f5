package wizard

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxNameDistance is the normalized levenshtein distance above which two
// names are considered unrelated.
const maxNameDistance = 0.4

type candidate struct {
	id   string
	name string
}

// bestMatch resolves free-text input against a candidate list. Exact id wins,
// then substring containment, then the closest name by normalized levenshtein
// distance under the threshold.
func bestMatch(input string, candidates []candidate) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return "", false
	}
	for _, c := range candidates {
		if needle == strings.ToLower(c.id) {
			return c.id, true
		}
	}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.name), needle) {
			return c.id, true
		}
	}

	bestID := ""
	bestScore := maxNameDistance
	for _, c := range candidates {
		name := strings.ToLower(c.name)
		dist := levenshtein.ComputeDistance(needle, name)
		maxLen := len(name)
		if len(needle) > maxLen {
			maxLen = len(needle)
		}
		if maxLen == 0 {
			continue
		}
		score := float64(dist) / float64(maxLen)
		if score < bestScore {
			bestScore = score
			bestID = c.id
		}
	}
	return bestID, bestID != ""
}
