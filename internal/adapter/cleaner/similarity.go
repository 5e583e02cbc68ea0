package cleaner

// Ratio 计算两段文本的相似度 [0,1]
// 口径与 Python difflib 的 SequenceMatcher.ratio() 一致：2*M/T，
// 其中 M 是所有匹配块的总长度，T 是两段文本的总长度
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := matchTotal(ra, rb)
	return 2.0 * float64(matched) / float64(total)
}

// matchTotal 递归累加匹配块：先找最长公共子串，再对其左右两侧分别递归
func matchTotal(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchTotal(a[:ai], b[:bi]) +
		matchTotal(a[ai+size:], b[bi+size:])
}

// longestMatch 返回 a 和 b 的最长公共子串位置和长度
// 等长候选取 a 中最靠前、其次 b 中最靠前的那个，保证结果确定
func longestMatch(a, b []rune) (bestA, bestB, bestSize int) {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				curr[j+1] = prev[j] + 1
				if curr[j+1] > bestSize {
					bestSize = curr[j+1]
					bestA = i - bestSize + 1
					bestB = j - bestSize + 1
				}
			} else {
				curr[j+1] = 0
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return bestA, bestB, bestSize
}
