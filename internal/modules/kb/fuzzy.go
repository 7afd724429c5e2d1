// README: Character-bigram Dice similarity, the last-resort matcher when
// neither lexical overlap nor embeddings find anything.
package kb

// diceSimilarity scores two normalized strings in [0,1] by comparing
// their character-bigram multisets.
func diceSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) < 2 || len(b) < 2 {
		return 0.0
	}
	ba := bigrams(a)
	bb := bigrams(b)
	shared := 0
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			if m < n {
				n = m
			}
			shared += n
		}
	}
	total := len(a) - 1 + len(b) - 1
	return 2.0 * float64(shared) / float64(total)
}

func bigrams(s string) map[string]int {
	out := make(map[string]int, len(s))
	for i := 0; i+2 <= len(s); i++ {
		out[s[i:i+2]]++
	}
	return out
}
