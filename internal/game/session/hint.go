package session

import (
	"math/rand/v2"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maskWord 渲染掩码提示：空格和连字符始终可见，
// 已揭示位置显示字母，其余用下划线占位，各位置用空格分隔
func maskWord(word string, revealed, personal map[int]bool) string {
	chars := []rune(word)
	out := make([]string, len(chars))
	for i, r := range chars {
		switch {
		case alwaysVisible(r):
			out[i] = string(r)
		case revealed[i] || personal[i]:
			out[i] = string(r)
		default:
			out[i] = "_"
		}
	}
	return strings.Join(out, " ")
}

// alwaysVisible 不参与揭示的位置：空白与连字符
func alwaysVisible(r rune) bool {
	return unicode.IsSpace(r) || r == '-'
}

// hiddenIndices 还未揭示且可揭示的位置
func hiddenIndices(word string, revealed, personal map[int]bool) []int {
	var out []int
	for i, r := range []rune(word) {
		if alwaysVisible(r) || revealed[i] || personal[i] {
			continue
		}
		out = append(out, i)
	}
	return out
}

// revealRandom 从未揭示位置中均匀随机揭示一个，返回是否成功
func revealRandom(word string, revealed, personal map[int]bool, into map[int]bool) bool {
	candidates := hiddenIndices(word, revealed, personal)
	if len(candidates) == 0 {
		return false
	}
	into[candidates[rand.IntN(len(candidates))]] = true
	return true
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// normalizeGuess 猜词归一化：去首尾空白并转大写
func normalizeGuess(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// stripDiacritics 去除变音符号（模糊匹配用，大小写和标点保持不变）
func stripDiacritics(text string) string {
	out, _, err := transform.String(diacriticStripper, text)
	if err != nil {
		return text
	}
	return out
}

// guessMatches 判断猜词是否命中
func guessMatches(guess, word string, fuzzy bool) bool {
	g := normalizeGuess(guess)
	w := normalizeGuess(word)
	if fuzzy {
		g = stripDiacritics(g)
		w = stripDiacritics(w)
	}
	return g == w
}

// guesserScore 猜对得分：基础 100 + 按剩余时间比例最多 200 + 首猜奖励 50
func guesserScore(timeLeft, drawTime int, first bool) int {
	score := 100
	if drawTime > 0 {
		score += ceilDiv(200*timeLeft, drawTime)
	}
	if first {
		score += 50
	}
	return score
}

// drawerScore 每个猜对者给画手带来的得分
func drawerScore(activePlayers int) int {
	div := activePlayers - 1
	if div < 1 {
		div = 1
	}
	return 250 / div
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
