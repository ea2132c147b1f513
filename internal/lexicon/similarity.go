package lexicon

// Ratio computes a character-level similarity between two strings in [0, 1].
// It is the Jaro similarity with Winkler prefix weighting: identification
// codes carry their discriminating characters up front, so a shared prefix
// counts for more than a shared tail. Symmetric; 1.0 for equal strings.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	jaro := jaroSimilarity(a, b)
	if jaro == 0 {
		return 0
	}

	// Winkler boost: up to 4 leading characters in common.
	const (
		maxPrefix    = 4
		prefixWeight = 0.1
	)
	prefix := 0
	for prefix < len(a) && prefix < len(b) && prefix < maxPrefix && a[prefix] == b[prefix] {
		prefix++
	}
	return jaro + float64(prefix)*prefixWeight*(1.0-jaro)
}

// jaroSimilarity implements the classic Jaro metric over bytes. The inputs
// are normalized uppercase alphanumerics, so byte-wise comparison is exact.
func jaroSimilarity(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	window := maxInt(la, lb)/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, la)
	bMatched := make([]bool, lb)
	matches := 0
	for i := range la {
		lo := maxInt(0, i-window)
		hi := minInt(lb-1, i+window)
		for j := lo; j <= hi; j++ {
			if bMatched[j] || a[i] != b[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	// Count transpositions among matched characters.
	transpositions := 0
	j := 0
	for i := range la {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2.0
	return (m/float64(la) + m/float64(lb) + (m-t)/m) / 3.0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
