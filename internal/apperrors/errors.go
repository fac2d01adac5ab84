package apperrors

import (
	"github.com/palemoky/sketch-party/internal/protocol"
)

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound  = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull      = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom     = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrGameStarted   = &GameError{Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrGameNotStart  = &GameError{Code: protocol.ErrCodeGameNotStart, Message: "游戏尚未开始"}
	ErrNotLeader     = &GameError{Code: protocol.ErrCodeNotLeader, Message: "只有房主可以执行该操作"}
	ErrNotEnough     = &GameError{Code: protocol.ErrCodeNotEnough, Message: "玩家人数不足"}
	ErrSpectatorOnly = &GameError{Code: protocol.ErrCodeSpectatorOnly, Message: "观战者不能执行该操作"}
	ErrNotYourTurn   = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrWordTooLong   = &GameError{Code: protocol.ErrCodeWordTooLong, Message: "词条过长"}
	ErrInvalidVote   = &GameError{Code: protocol.ErrCodeInvalidVote, Message: "星级必须在 1-5 之间"}
	ErrSelfVote      = &GameError{Code: protocol.ErrCodeSelfVote, Message: "不能给自己的作品投票"}
	ErrAlreadyVoted  = &GameError{Code: protocol.ErrCodeAlreadyVoted, Message: "您已经给这幅作品投过票"}
	ErrInvalidLayer  = &GameError{Code: protocol.ErrCodeInvalidLayer, Message: "图层不存在"}
)
