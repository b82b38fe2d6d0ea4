package matching

// Ratio computes a character-based sequence similarity in [0,1]:
// 2*M / (len(a)+len(b)), where M is the total length of the longest
// matching blocks found by recursively splitting around the longest
// common substring. Two empty strings are identical.
func Ratio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1.0
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}

	b2j := make(map[rune][]int, len(br))
	for j, r := range br {
		b2j[r] = append(b2j[r], j)
	}

	matched := matchingTotal(ar, b2j, 0, len(ar), 0, len(br))
	return 2.0 * float64(matched) / float64(len(ar)+len(br))
}

func matchingTotal(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b2j, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a, b2j, alo, i, blo, j) +
		matchingTotal(a, b2j, i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] with
// alo<=i<i+k<=ahi and blo<=j<j+k<=bhi, preferring the earliest block on
// ties.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	runLen := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newRunLen := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := runLen[j-1] + 1
			newRunLen[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		runLen = newRunLen
	}
	return besti, bestj, bestsize
}
