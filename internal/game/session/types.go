package session

import (
	"github.com/palemoky/sketch-party/internal/game/canvas"
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/types"
)

// State 房间状态
type State int

const (
	StateLobby      State = iota // 大厅，可改设置
	StateReadyCheck              // 等待全员确认
	StatePlaying                 // 游戏中
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateReadyCheck:
		return "ready_check"
	case StatePlaying:
		return "playing"
	}
	return "unknown"
}

// User 房间中的用户
type User struct {
	ID          string
	Username    string
	Avatar      string
	Spectator   bool
	Score       int    // 当局累计分
	ActiveLayer string // 当前选中的图层
	Client      types.ClientInterface
}

// Info 转为对外的用户信息
func (u *User) Info() protocol.UserInfo {
	return protocol.UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Spectator: u.Spectator,
		Score:     u.Score,
	}
}

// modeEngine 模式引擎的统一生命周期
// 三种模式互斥，Session 同一时刻只持有一个引擎
// 所有方法都在 Session 锁内调用
type modeEngine interface {
	start()
	handleDisconnect(u *User)
	tearDown()

	// 画布路由
	canDraw(u *User) bool
	surfaceFor(u *User) *canvas.History // nil 表示使用共享画布
	audienceFor(u *User) []string       // 接收 u 画布更新的用户集合
	subscribe(spectator *User, targetID string)
}
