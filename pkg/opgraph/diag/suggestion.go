package diag

import "fmt"

// Suggest returns a "Did you mean" hint for the candidate closest to
// unknown, or "" when nothing is within a few edits.
func Suggest(unknown string, candidates []string) string {
	best, distance := "", 1000
	for _, c := range candidates {
		if d := levenshtein(unknown, c); d < distance {
			best, distance = c, d
		}
	}
	if best == "" || distance > 3 {
		return ""
	}
	return fmt.Sprintf("did you mean %q?", best)
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
