package types

import (
	"context"

	"github.com/palemoky/sketch-party/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	GetOnlineCount() int
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetName() string
	SetName(name string)
	GetRoom() string
	SetRoom(code string)
	SendMessage(msg *protocol.Message)
	Close()
}

// ResultsRecorder 游戏结算写入接口（排行榜）
type ResultsRecorder interface {
	RecordGameResult(ctx context.Context, playerID, playerName string, score int, won bool) error
}

// Dictionary 词库接口
type Dictionary interface {
	RandomWord() string
	RandomWords(n int) []string
}

// ThemeProvider AI 主题词生成接口
// 返回的词条数不足请求数一半时实现方应返回错误
type ThemeProvider interface {
	ThemeWords(ctx context.Context, theme string, count int) ([]string, error)
}
