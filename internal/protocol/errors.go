package protocol

// 错误码定义
const (
	ErrCodeUnknown     = 1000 // 未知错误
	ErrCodeInvalidMsg  = 1001 // 消息格式错误
	ErrCodeRateLimit   = 1002 // 请求过于频繁
	ErrCodeMaintenance = 1003 // 服务器维护中

	ErrCodeRoomNotFound  = 2001 // 房间不存在
	ErrCodeRoomFull      = 2002 // 房间已满
	ErrCodeNotInRoom     = 2003 // 不在房间中
	ErrCodeGameStarted   = 2004 // 游戏已开始
	ErrCodeGameNotStart  = 2005 // 游戏尚未开始
	ErrCodeNotLeader     = 2006 // 不是房主
	ErrCodeNotEnough     = 2007 // 玩家人数不足
	ErrCodeSpectatorOnly = 2008 // 观战者不能执行该操作

	ErrCodeNotYourTurn   = 3001 // 还没轮到您
	ErrCodeWordTooLong   = 3002 // 词条过长
	ErrCodeInvalidVote   = 3003 // 无效投票
	ErrCodeSelfVote      = 3004 // 不能给自己投票
	ErrCodeAlreadyVoted  = 3005 // 已经投过票
	ErrCodeInvalidLayer  = 3006 // 图层不存在
	ErrCodeNothingToUndo = 3007 // 没有可撤销的内容
	ErrCodeNothingToRedo = 3008 // 没有可重做的内容
)

// ErrorMessages 错误码对应的提示文本
var ErrorMessages = map[int]string{
	ErrCodeUnknown:     "未知错误",
	ErrCodeInvalidMsg:  "消息格式错误",
	ErrCodeRateLimit:   "请求过于频繁",
	ErrCodeMaintenance: "服务器维护中",

	ErrCodeRoomNotFound:  "房间不存在",
	ErrCodeRoomFull:      "房间已满",
	ErrCodeNotInRoom:     "您不在房间中",
	ErrCodeGameStarted:   "游戏已开始",
	ErrCodeGameNotStart:  "游戏尚未开始",
	ErrCodeNotLeader:     "只有房主可以执行该操作",
	ErrCodeNotEnough:     "玩家人数不足",
	ErrCodeSpectatorOnly: "观战者不能执行该操作",

	ErrCodeNotYourTurn:   "还没轮到您",
	ErrCodeWordTooLong:   "词条过长",
	ErrCodeInvalidVote:   "星级必须在 1-5 之间",
	ErrCodeSelfVote:      "不能给自己的作品投票",
	ErrCodeAlreadyVoted:  "您已经给这幅作品投过票",
	ErrCodeInvalidLayer:  "图层不存在",
	ErrCodeNothingToUndo: "没有可撤销的内容",
	ErrCodeNothingToRedo: "没有可重做的内容",
}

// ErrorPayload 错误消息内容
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
