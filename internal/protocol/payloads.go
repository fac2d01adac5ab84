package protocol

// --- 公共数据结构 ---

// GameMode 游戏模式
type GameMode string

const (
	ModeClassic   GameMode = "classic"   // 固定候选词猜画
	ModeCustom    GameMode = "custom"    // 画手自定义词
	ModeThemed    GameMode = "themed"    // AI 主题词
	ModeCreative  GameMode = "creative"  // 画作投票
	ModeTelephone GameMode = "telephone" // 传话链
)

// Settings 房间设置
type Settings struct {
	Mode             GameMode `json:"mode"`
	DrawTime         int      `json:"draw_time"`         // 绘画时长（秒）
	WriteTime        int      `json:"write_time"`        // 传话写字时长（秒）
	WordChoiceTime   int      `json:"word_choice_time"`  // 选词时长（秒）
	WordChoices      int      `json:"word_choices"`      // 候选词数量
	Rounds           int      `json:"rounds"`            // 总轮数
	AllowFuzzy       bool     `json:"allow_fuzzy"`       // 模糊匹配（忽略变音符号）
	HintsEnabled     bool     `json:"hints_enabled"`     // 是否自动放出全局提示
	MaxWordLength    int      `json:"max_word_length"`   // 自定义词最大长度
	PersonalHints    int      `json:"personal_hints"`    // 每回合个人提示次数
	PresentationTime int      `json:"presentation_time"` // 创意模式单幅展示时长（秒）
	VoteTime         int      `json:"vote_time"`         // 创意模式投票时长（秒）
	AnonymizeArt     bool     `json:"anonymize_art"`     // 展示时隐藏作者
	Theme            string   `json:"theme"`             // AI 主题词的主题
	MaxPlayers       int      `json:"max_players"`       // 房间容量
	Public           bool     `json:"public"`            // 是否公开房间
}

// UserInfo 用户信息
type UserInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Spectator bool   `json:"spectator"`
	Score     int    `json:"score"`
}

// CanvasAction 一次画笔动作，StrokeID 相同的动作构成一个可撤销单元
type CanvasAction struct {
	UserID   string    `json:"user_id"`
	LayerID  string    `json:"layer_id"`
	StrokeID string    `json:"stroke_id"`
	Tool     string    `json:"tool"` // pen/eraser/fill...
	Points   []Point   `json:"points"`
	Color    string    `json:"color"`
	Width    float64   `json:"width"`
}

// Point 画布坐标
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layer 图层
type Layer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerResult 结算条目
type PlayerResult struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
	Left     bool   `json:"left,omitempty"` // 中途离开
}

// ChainStep 传话链中的一步
type ChainStep struct {
	Author   string         `json:"author"`
	AuthorID string         `json:"author_id"`
	Type     string         `json:"type"` // text / drawing
	Text     string         `json:"text,omitempty"`
	Drawing  []CanvasAction `json:"drawing,omitempty"`
}

// --- 客户端请求 Payloads ---

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode  string `json:"room_code"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Spectator bool   `json:"spectator"`
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// ChatPayload 聊天/猜词请求
type ChatPayload struct {
	Text string `json:"text"`
}

// ChooseWordPayload 候选词选择请求
type ChooseWordPayload struct {
	Index int `json:"index"`
}

// CustomWordPayload 自定义词请求
type CustomWordPayload struct {
	Word string `json:"word"`
}

// VotePayload 创意模式打分请求
type VotePayload struct {
	TargetID string `json:"target_id"`
	Stars    int    `json:"stars"` // 1-5
}

// TelephoneSubmitPayload 传话提交请求（绘画轮以服务端缓冲为准）
type TelephoneSubmitPayload struct {
	Text string `json:"text,omitempty"`
}

// SubscribePayload 观战订阅请求
type SubscribePayload struct {
	TargetID string `json:"target_id"`
}

// LayerAddPayload 新建图层请求
type LayerAddPayload struct {
	Name string `json:"name"`
}

// LayerDeletePayload 删除图层请求
type LayerDeletePayload struct {
	LayerID string `json:"layer_id"`
}

// LayerRenamePayload 重命名图层请求
type LayerRenamePayload struct {
	LayerID string `json:"layer_id"`
	Name    string `json:"name"`
}

// LayerReorderPayload 图层排序请求
type LayerReorderPayload struct {
	LayerIDs []string `json:"layer_ids"`
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"player_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
	Online          int   `json:"online"` // 当前在线人数
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomCode string         `json:"room_code"`
	Self     UserInfo       `json:"self"`
	LeaderID string         `json:"leader_id"`
	Users    []UserInfo     `json:"users"`
	Settings Settings       `json:"settings"`
	State    string         `json:"state"`
	Layers   []Layer        `json:"layers"`
	Canvas   []CanvasAction `json:"canvas"`
}

// UserJoinedPayload 用户加入通知
type UserJoinedPayload struct {
	User UserInfo `json:"user"`
}

// UserLeftPayload 用户离开通知
type UserLeftPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	LeaderID string `json:"leader_id"` // 可能发生房主转移
}

// SettingsUpdatedPayload 设置更新通知
type SettingsUpdatedPayload struct {
	Settings Settings `json:"settings"`
}

// SystemNoticePayload 系统通知
type SystemNoticePayload struct {
	Text string `json:"text"`
}

// ChatMessagePayload 聊天广播
type ChatMessagePayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ReadyCheckPayload 准备确认开始
type ReadyCheckPayload struct {
	Timeout int `json:"timeout"` // 秒
}

// ReadyUpdatePayload 准备状态变化
type ReadyUpdatePayload struct {
	UserID   string `json:"user_id"`
	Accepted bool   `json:"accepted"`
}

// StartCountdownPayload 开始倒计时
type StartCountdownPayload struct {
	Seconds int `json:"seconds"`
}

// GameStartedPayload 游戏开始
type GameStartedPayload struct {
	Mode        GameMode `json:"mode"`
	TotalRounds int      `json:"total_rounds"`
	TurnOrder   []string `json:"turn_order,omitempty"`
}

// GameEndedPayload 游戏结束
type GameEndedPayload struct {
	Results []PlayerResult `json:"results"`
	Reason  string         `json:"reason,omitempty"`
}

// TurnStartPayload 新回合
type TurnStartPayload struct {
	DrawerID string `json:"drawer_id"`
	Round    int    `json:"round"`
	Turn     int    `json:"turn"`
}

// WordSelectionPayload 画手选词中
type WordSelectionPayload struct {
	DrawerID string `json:"drawer_id"`
	Timeout  int    `json:"timeout"`
}

// TypeWordPayload 请画手输入词
type TypeWordPayload struct {
	Timeout   int `json:"timeout"`
	MaxLength int `json:"max_length"`
}

// WordOptionsPayload 候选词
type WordOptionsPayload struct {
	Words   []string `json:"words"`
	Timeout int      `json:"timeout"`
}

// YourWordPayload 完整词（仅画手）
type YourWordPayload struct {
	Word string `json:"word"`
}

// RoundStartPayload 回合开始（非画手收到掩码提示）
type RoundStartPayload struct {
	Hint     string `json:"hint"`
	DrawTime int    `json:"draw_time"`
}

// TimeUpdatePayload 剩余时间
type TimeUpdatePayload struct {
	TimeLeft int `json:"time_left"`
}

// HintUpdatePayload 全局提示更新
type HintUpdatePayload struct {
	Hint string `json:"hint"`
}

// PersonalHintPayload 个人提示结果
type PersonalHintPayload struct {
	Hint      string `json:"hint"`
	HintsLeft int    `json:"hints_left"`
}

// HintFailedPayload 个人提示失败
type HintFailedPayload struct {
	Reason       string `json:"reason"` // no_hints_left / cooldown / nothing_to_reveal
	CooldownLeft int    `json:"cooldown_left,omitempty"`
}

// PlayerGuessedPayload 有人猜对
type PlayerGuessedPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ScoreUpdatePayload 分数更新
type ScoreUpdatePayload struct {
	Scores map[string]int `json:"scores"`
}

// RoundEndPayload 回合结束
type RoundEndPayload struct {
	Reason      string         `json:"reason"` // time_up / all_guessed / drawer_left
	Word        string         `json:"word"`
	RoundScores map[string]int `json:"round_scores"`
	Scores      map[string]int `json:"scores"`
}

// --- 创意模式 Payloads ---

// CreativeDrawingPayload 绘画阶段
type CreativeDrawingPayload struct {
	Word     string `json:"word"`
	DrawTime int    `json:"draw_time"`
	Round    int    `json:"round"`
}

// CreativeIntermissionPayload 缓冲阶段
type CreativeIntermissionPayload struct {
	Seconds int `json:"seconds"`
}

// CreativePresentationPayload 单幅展示
type CreativePresentationPayload struct {
	Index    int            `json:"index"`
	Total    int            `json:"total"`
	ArtistID string         `json:"artist_id,omitempty"` // 匿名展示时为空
	Artist   string         `json:"artist,omitempty"`
	Drawing  []CanvasAction `json:"drawing"`
	Seconds  int            `json:"seconds"`
}

// CreativeDrawingEntry 投票阶段的一幅作品
type CreativeDrawingEntry struct {
	ArtistID string         `json:"artist_id"`
	Artist   string         `json:"artist"`
	Drawing  []CanvasAction `json:"drawing"`
}

// CreativeVotingPayload 投票阶段
type CreativeVotingPayload struct {
	Drawings []CreativeDrawingEntry `json:"drawings"`
	Seconds  int                    `json:"seconds"`
}

// CreativeResultEntry 单人评分
type CreativeResultEntry struct {
	ArtistID string `json:"artist_id"`
	Artist   string `json:"artist"`
	Stars    int    `json:"stars"`
}

// CreativeResultsPayload 评分结果
type CreativeResultsPayload struct {
	Results []CreativeResultEntry  `json:"results"` // 按得分降序
	Podium  []CreativeDrawingEntry `json:"podium"`  // 前三名作品
	Scores  map[string]int         `json:"scores"`  // 累计分
	Round   int                    `json:"round"`
	Final   bool                   `json:"final"`
}

// --- 传话模式 Payloads ---

// TelephoneRoundPayload 新一轮（每人收到的题面不同）
type TelephoneRoundPayload struct {
	Round   int        `json:"round"`
	Total   int        `json:"total"`
	Phase   string     `json:"phase"` // writing / drawing
	Prompt  *ChainStep `json:"prompt,omitempty"` // 第一轮为空
	Seconds int        `json:"seconds"`
}

// TelephoneRoundEndPayload 本轮结束
type TelephoneRoundEndPayload struct {
	Round int `json:"round"`
}

// TelephoneChain 一条完整链
type TelephoneChain struct {
	OwnerID string      `json:"owner_id"`
	Owner   string      `json:"owner"`
	Steps   []ChainStep `json:"steps"`
}

// TelephoneGameEndedPayload 链条回放
type TelephoneGameEndedPayload struct {
	Chains []TelephoneChain `json:"chains"`
}

// --- 画布 Payloads ---

// DrawBroadcastPayload 画笔动作转发
type DrawBroadcastPayload struct {
	Action CanvasAction `json:"action"`
}

// CanvasStatePayload 画布全量状态
type CanvasStatePayload struct {
	OwnerID string         `json:"owner_id,omitempty"` // 私有画布的归属者
	Actions []CanvasAction `json:"actions"`
}

// ClearLayerPayload 图层清空通知
type ClearLayerPayload struct {
	LayerID string `json:"layer_id"`
}

// UndoRedoStatePayload 撤销/重做可用性
type UndoRedoStatePayload struct {
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// LayerUpdatePayload 图层列表变更
type LayerUpdatePayload struct {
	Layers []Layer `json:"layers"`
}

// --- 排行榜 Payloads ---

// StatsResultPayload 个人统计结果
type StatsResultPayload struct {
	Stats *PlayerStats `json:"stats"`
}

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TotalGames int    `json:"total_games"` // 总场次
	Wins       int    `json:"wins"`        // 第一名次数
	BestScore  int    `json:"best_score"`  // 单局最高分
	TotalScore int    `json:"total_score"` // 累计得分
	LastPlayed int64  `json:"last_played"` // 最后游戏时间
	CreatedAt  int64  `json:"created_at"`  // 首次游戏时间
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TotalScore int    `json:"total_score"`
	Wins       int    `json:"wins"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}
