package session

import (
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/config"
	"github.com/palemoky/sketch-party/internal/game/canvas"
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/types"
)

const maxUsernameLen = 20

// Session 一个房间的完整状态：成员、设置、画布和当前模式引擎
//
// 所有变更都在 s.mu 内串行执行：入站消息处理和定时器回调
// 先取锁再动状态，同一房间不会有两个处理过程并发
type Session struct {
	Code string

	mu       sync.Mutex
	leaderID string
	users    []*User
	settings protocol.Settings
	state    State
	layers   []protocol.Layer
	canvas   *canvas.History
	engine   modeEngine

	dict     types.Dictionary
	themes   types.ThemeProvider   // 可为 nil，主题模式降级到词库
	recorder types.ResultsRecorder // 可为 nil，不记录排行榜

	ready          map[string]bool
	readyTimer     *time.Timer
	countdownTimer *time.Timer
}

// New 创建房间会话
func New(code string, cfg *config.GameConfig, dict types.Dictionary, themes types.ThemeProvider, recorder types.ResultsRecorder) *Session {
	return &Session{
		Code: code,
		settings: protocol.Settings{
			Mode:             protocol.ModeClassic,
			DrawTime:         cfg.DrawTime,
			WriteTime:        cfg.WriteTime,
			WordChoiceTime:   cfg.WordChoiceTime,
			WordChoices:      cfg.WordChoices,
			Rounds:           cfg.Rounds,
			AllowFuzzy:       true,
			HintsEnabled:     true,
			MaxWordLength:    cfg.MaxWordLength,
			PersonalHints:    cfg.PersonalHints,
			PresentationTime: cfg.PresentationTime,
			VoteTime:         cfg.VoteTime,
			MaxPlayers:       cfg.MaxPlayers,
		},
		state:    StateLobby,
		layers:   []protocol.Layer{{ID: "base", Name: "背景"}},
		canvas:   canvas.NewHistory(),
		dict:     dict,
		themes:   themes,
		recorder: recorder,
	}
}

// --- 成员管理 ---

// Join 用户加入房间
func (s *Session) Join(client types.ClientInterface, username, avatar string, spectator bool) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !spectator && len(s.activePlayers()) >= s.settings.MaxPlayers {
		return nil, apperrors.ErrRoomFull
	}

	u := &User{
		ID:          client.GetID(),
		Username:    s.uniqueUsername(sanitizeUsername(username)),
		Avatar:      avatar,
		Spectator:   spectator,
		ActiveLayer: s.layers[0].ID,
		Client:      client,
	}
	s.users = append(s.users, u)

	// 第一个非观战者成为房主
	if s.leaderID == "" && !spectator {
		s.leaderID = u.ID
	}

	s.broadcastExcept(u.ID, protocol.MustNewMessage(protocol.MsgUserJoined, protocol.UserJoinedPayload{
		User: u.Info(),
	}))

	s.sendTo(u.ID, protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode: s.Code,
		Self:     u.Info(),
		LeaderID: s.leaderID,
		Users:    s.userInfos(),
		Settings: s.settings,
		State:    s.state.String(),
		Layers:   s.layers,
		Canvas:   s.canvas.Snapshot(),
	}))

	log.Printf("👋 用户 %s 加入房间 %s (观战=%v)", u.Username, s.Code, spectator)
	return u, nil
}

// Leave 用户离开房间，返回剩余人数
func (s *Session) Leave(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, u := range s.users {
		if u.ID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return len(s.users)
	}

	u := s.users[idx]
	s.users = append(s.users[:idx], s.users[idx+1:]...)

	// 房主转移给最早加入的非观战者
	if s.leaderID == u.ID {
		s.leaderID = ""
		for _, rest := range s.users {
			if !rest.Spectator {
				s.leaderID = rest.ID
				break
			}
		}
	}

	s.broadcast(protocol.MustNewMessage(protocol.MsgUserLeft, protocol.UserLeftPayload{
		UserID:   u.ID,
		Username: u.Username,
		LeaderID: s.leaderID,
	}))

	switch s.state {
	case StateReadyCheck:
		// 有人离开时取消确认流程
		s.cancelReadyCheck("有玩家离开，开始流程已取消")
	case StatePlaying:
		if s.engine != nil {
			s.engine.handleDisconnect(u)
		}
	}

	log.Printf("📴 用户 %s 离开房间 %s，剩余 %d 人", u.Username, s.Code, len(s.users))
	return len(s.users)
}

// Empty 房间是否已空
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users) == 0
}

// Close 房间销毁前的清理，取消所有挂起的定时器
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimer(&s.readyTimer)
	s.stopTimer(&s.countdownTimer)
	if s.engine != nil {
		s.engine.tearDown()
		s.engine = nil
	}
}

// --- 设置 ---

// UpdateSettings 房主在大厅修改设置
func (s *Session) UpdateSettings(userID string, ns protocol.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID != s.leaderID {
		return apperrors.ErrNotLeader
	}
	if s.state != StateLobby {
		return apperrors.ErrGameStarted
	}

	clampSettings(&ns, &s.settings)
	s.settings = ns

	s.broadcast(protocol.MustNewMessage(protocol.MsgSettingsUpdated, protocol.SettingsUpdatedPayload{
		Settings: s.settings,
	}))
	return nil
}

// clampSettings 约束取值范围，非法值回退到当前值
func clampSettings(ns, cur *protocol.Settings) {
	switch ns.Mode {
	case protocol.ModeClassic, protocol.ModeCustom, protocol.ModeThemed,
		protocol.ModeCreative, protocol.ModeTelephone:
	default:
		ns.Mode = cur.Mode
	}
	clampInt(&ns.DrawTime, 15, 300, cur.DrawTime)
	clampInt(&ns.WriteTime, 10, 180, cur.WriteTime)
	clampInt(&ns.WordChoiceTime, 5, 60, cur.WordChoiceTime)
	clampInt(&ns.WordChoices, 2, 5, cur.WordChoices)
	clampInt(&ns.Rounds, 1, 10, cur.Rounds)
	clampInt(&ns.MaxWordLength, 4, 64, cur.MaxWordLength)
	clampInt(&ns.PersonalHints, 0, 5, cur.PersonalHints)
	clampInt(&ns.PresentationTime, 5, 30, cur.PresentationTime)
	clampInt(&ns.VoteTime, 15, 180, cur.VoteTime)
	clampInt(&ns.MaxPlayers, 2, 20, cur.MaxPlayers)
}

func clampInt(v *int, lo, hi, fallback int) {
	if *v < lo || *v > hi {
		*v = fallback
	}
}

// --- 聊天与猜词 ---

// Chat 聊天消息，猜词模式下优先作为猜词处理
func (s *Session) Chat(userID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if e, ok := s.engine.(*turnEngine); ok && !u.Spectator {
		if e.guess(u, text) {
			return // 命中答案，不把词条广播出去
		}
	}

	s.broadcast(protocol.MustNewMessage(protocol.MsgChatMessage, protocol.ChatMessagePayload{
		UserID:   u.ID,
		Username: u.Username,
		Text:     text,
	}))
}

// --- 模式引擎入口 ---

// ChooseWord 画手从候选词中选择
func (s *Session) ChooseWord(userID string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engine.(*turnEngine); ok {
		e.chooseWord(userID, index)
	}
}

// CustomWord 画手输入自定义词
func (s *Session) CustomWord(userID, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engine.(*turnEngine); ok {
		return e.customWord(userID, word)
	}
	return apperrors.ErrGameNotStart
}

// RequestHint 非画手申请个人提示
func (s *Session) RequestHint(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engine.(*turnEngine); ok {
		e.requestHint(userID)
	}
}

// Vote 创意模式打分
func (s *Session) Vote(userID, targetID string, stars int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engine.(*creativeEngine); ok {
		return e.vote(userID, targetID, stars)
	}
	return apperrors.ErrGameNotStart
}

// TelephoneSubmit 传话模式提交本轮内容
func (s *Session) TelephoneSubmit(userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engine.(*telephoneEngine); ok {
		return e.submit(userID, text)
	}
	return apperrors.ErrGameNotStart
}

// Subscribe 观战者订阅某个玩家的画布
func (s *Session) Subscribe(userID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil || !u.Spectator || s.engine == nil {
		return
	}
	s.engine.subscribe(u, targetID)
}

// --- 内部工具（调用方需持锁） ---

func (s *Session) findUser(id string) *User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// activePlayers 当前在房的非观战者
func (s *Session) activePlayers() []*User {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		if !u.Spectator {
			out = append(out, u)
		}
	}
	return out
}

func (s *Session) userInfos() []protocol.UserInfo {
	out := make([]protocol.UserInfo, len(s.users))
	for i, u := range s.users {
		out[i] = u.Info()
	}
	return out
}

// broadcast 发给房间内所有用户
func (s *Session) broadcast(msg *protocol.Message) {
	for _, u := range s.users {
		u.Client.SendMessage(msg)
	}
}

// broadcastExcept 发给除指定用户外的所有用户
func (s *Session) broadcastExcept(userID string, msg *protocol.Message) {
	for _, u := range s.users {
		if u.ID != userID {
			u.Client.SendMessage(msg)
		}
	}
}

// sendTo 发给单个用户
func (s *Session) sendTo(userID string, msg *protocol.Message) {
	if u := s.findUser(userID); u != nil {
		u.Client.SendMessage(msg)
	}
}

// sendToSet 发给一组用户（动态订阅集）
func (s *Session) sendToSet(ids []string, msg *protocol.Message) {
	for _, id := range ids {
		s.sendTo(id, msg)
	}
}

// notice 系统通知
func (s *Session) notice(text string) {
	s.broadcast(protocol.MustNewMessage(protocol.MsgSystemNotice, protocol.SystemNoticePayload{Text: text}))
}

// uniqueUsername 保证用户名在房间内唯一
func (s *Session) uniqueUsername(name string) string {
	taken := func(n string) bool {
		for _, u := range s.users {
			if u.Username == n {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// sanitizeUsername 清理用户名：去控制字符、裁剪到 20 个字符
func sanitizeUsername(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(name))

	runes := []rune(cleaned)
	if len(runes) > maxUsernameLen {
		runes = runes[:maxUsernameLen]
	}
	if len(runes) == 0 {
		return "玩家" + uuid.NewString()[:4]
	}
	return string(runes)
}
