package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom     MessageType = "create_room"     // 创建房间
	MsgJoinRoom       MessageType = "join_room"       // 加入房间
	MsgLeaveRoom      MessageType = "leave_room"      // 离开房间
	MsgUpdateSettings MessageType = "update_settings" // 房主修改设置
	MsgStartGame      MessageType = "start_game"      // 房主发起开始
	MsgReadyAccept    MessageType = "ready_accept"    // 准备确认
	MsgReadyRefuse    MessageType = "ready_refuse"    // 拒绝开始

	// 游戏操作
	MsgChat            MessageType = "chat"             // 聊天（游戏中视为猜词）
	MsgChooseWord      MessageType = "choose_word"      // 从候选中选词
	MsgCustomWord      MessageType = "custom_word"      // 自定义输入词
	MsgRequestHint     MessageType = "request_hint"     // 申请个人提示
	MsgVote            MessageType = "vote"             // 创意模式打分
	MsgTelephoneSubmit MessageType = "telephone_submit" // 传话模式提交
	MsgSubscribe       MessageType = "subscribe"        // 观战者订阅某个玩家

	// 画布操作
	MsgDraw         MessageType = "draw"          // 画笔动作
	MsgUndo         MessageType = "undo"          // 撤销
	MsgRedo         MessageType = "redo"          // 重做
	MsgClearCanvas  MessageType = "clear_canvas"  // 清空画布
	MsgLayerAdd     MessageType = "layer_add"     // 新建图层
	MsgLayerDelete  MessageType = "layer_delete"  // 删除图层
	MsgLayerRename  MessageType = "layer_rename"  // 重命名图层
	MsgLayerReorder MessageType = "layer_reorder" // 调整图层顺序

	// 排行榜
	MsgGetStats       MessageType = "get_stats"       // 获取个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgRoomJoined      MessageType = "room_joined"      // 加入房间成功
	MsgUserJoined      MessageType = "user_joined"      // 其他用户加入
	MsgUserLeft        MessageType = "user_left"        // 用户离开
	MsgSettingsUpdated MessageType = "settings_updated" // 设置已更新
	MsgSystemNotice    MessageType = "system_notice"    // 系统通知
	MsgChatMessage     MessageType = "chat_message"     // 聊天广播

	// 开局流程
	MsgReadyCheck     MessageType = "ready_check"     // 进入准备确认
	MsgReadyUpdate    MessageType = "ready_update"    // 某个玩家的准备状态
	MsgStartCountdown MessageType = "start_countdown" // 开始倒计时
	MsgGameStarted    MessageType = "game_started"    // 游戏开始
	MsgGameEnded      MessageType = "game_ended"      // 游戏结束

	// 猜词模式流程
	MsgTurnStart     MessageType = "turn_start"     // 新回合，确定画手
	MsgWordSelection MessageType = "word_selection" // 画手选词中
	MsgTypeWord      MessageType = "type_word"      // 请画手输入词（自定义模式）
	MsgWordOptions   MessageType = "word_options"   // 候选词（仅画手可见）
	MsgYourWord      MessageType = "your_word"      // 完整词（仅画手可见）
	MsgRoundStart    MessageType = "round_start"    // 回合计时开始
	MsgTimeUpdate    MessageType = "time_update"    // 剩余秒数
	MsgHintUpdate    MessageType = "hint_update"    // 全局提示更新
	MsgPersonalHint  MessageType = "personal_hint"  // 个人提示结果
	MsgHintFailed    MessageType = "hint_failed"    // 个人提示失败
	MsgPlayerGuessed MessageType = "player_guessed" // 有人猜对
	MsgScoreUpdate   MessageType = "score_update"   // 分数更新
	MsgRoundEnd      MessageType = "round_end"      // 回合结束

	// 创意模式流程
	MsgCreativeDrawing      MessageType = "creative_drawing"      // 绘画阶段开始
	MsgCreativeIntermission MessageType = "creative_intermission" // 缓冲阶段
	MsgCreativePresentation MessageType = "creative_presentation" // 逐幅展示
	MsgCreativeVoting       MessageType = "creative_voting"       // 投票阶段
	MsgCreativeResults      MessageType = "creative_results"      // 评分结果

	// 传话模式流程
	MsgTelephoneRound     MessageType = "telephone_round"      // 新一轮开始（含题面）
	MsgTelephoneRoundEnd  MessageType = "telephone_round_end"  // 本轮结束
	MsgTelephoneGameEnded MessageType = "telephone_game_ended" // 链条回放

	// 画布相关
	MsgDrawBroadcast MessageType = "draw_broadcast"  // 画笔动作转发
	MsgCanvasState   MessageType = "canvas_state"    // 画布全量状态
	MsgCanvasCleared MessageType = "canvas_cleared"  // 画布已清空
	MsgClearLayer    MessageType = "layer_cleared"   // 图层已清空
	MsgUndoRedoState MessageType = "undo_redo_state" // 撤销/重做可用性
	MsgLayerUpdate   MessageType = "layer_update"    // 图层列表变更

	// 排行榜
	MsgStatsResult       MessageType = "stats_result"       // 个人统计结果
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)
