package words

import (
	"math/rand/v2"
	"strings"
)

// 默认词库，取常见易画的名词
var defaultWords = []string{
	"apple", "banana", "pizza", "hamburger", "ice cream", "cookie", "carrot",
	"dog", "cat", "elephant", "giraffe", "penguin", "butterfly", "spider",
	"shark", "octopus", "turtle", "rabbit", "snail", "owl", "dragon",
	"house", "castle", "bridge", "lighthouse", "windmill", "igloo", "tent",
	"car", "bicycle", "airplane", "helicopter", "submarine", "rocket", "train",
	"guitar", "piano", "violin", "drum", "trumpet", "microphone",
	"sun", "moon", "star", "rainbow", "cloud", "lightning", "volcano",
	"tree", "flower", "cactus", "mushroom", "palm tree", "sunflower",
	"pirate", "robot", "ghost", "wizard", "mermaid", "astronaut", "clown",
	"umbrella", "ladder", "anchor", "compass", "telescope", "hourglass",
	"scissors", "hammer", "paintbrush", "candle", "key", "crown", "ring",
	"snowman", "campfire", "waterfall", "island", "mountain", "desert",
	"football", "basketball", "skateboard", "surfboard", "kite", "balloon",
	"glasses", "mustache", "backpack", "boot", "glove", "scarf", "hat",
	"clock", "mirror", "bookshelf", "fridge", "toaster", "teapot", "lamp",
	"spaceship", "dinosaur", "unicorn", "t-rex", "jellyfish", "flamingo",
	"sandwich", "taco", "donut", "popcorn", "watermelon", "pineapple",
	"fire truck", "police car", "hot-air balloon", "ferris wheel",
}

// Dictionary 静态词库
type Dictionary struct {
	words []string
}

// NewDictionary 创建词库，传入空列表时使用内置词库
func NewDictionary(list []string) *Dictionary {
	if len(list) == 0 {
		list = defaultWords
	}
	return &Dictionary{words: list}
}

// RandomWord 返回一个随机词
func (d *Dictionary) RandomWord() string {
	return d.words[rand.IntN(len(d.words))]
}

// RandomWords 返回 n 个互不相同的随机词
// n 超过词库大小时返回整个词库的乱序副本
func (d *Dictionary) RandomWords(n int) []string {
	if n >= len(d.words) {
		out := make([]string, len(d.words))
		copy(out, d.words)
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}

	picked := make([]string, 0, n)
	seen := make(map[int]bool, n)
	for len(picked) < n {
		idx := rand.IntN(len(d.words))
		if seen[idx] {
			continue
		}
		seen[idx] = true
		picked = append(picked, d.words[idx])
	}
	return picked
}

// Size 返回词库大小
func (d *Dictionary) Size() int {
	return len(d.words)
}

// Sanitize 清理词条：去除首尾空白并压缩连续空白
func Sanitize(word string) string {
	return strings.Join(strings.Fields(word), " ")
}
