package session

import (
	"context"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/game/canvas"
	"github.com/palemoky/sketch-party/internal/game/words"
	"github.com/palemoky/sketch-party/internal/protocol"
)

const (
	nextTurnDelay        = 5 * time.Second  // 回合结束到下一回合的间隔
	personalHintCooldown = 20 * time.Second // 个人提示冷却
	themePoolFactor      = 5                // 主题词池相对最低需求的倍数
)

// turnEngine 轮流画画与猜词（固定候选/自定义/AI 主题三种选词方式）
//
// turnOrder 在整局中固定：有人中途退出时下标照常推进，
// 缺席的画手被静默跳过；分数表以最初的玩家 ID 为键，从不删除
type turnEngine struct {
	s *Session

	turnOrder   []string
	drawerIdx   int
	round       int
	totalRounds int
	turnCount   int

	scores      map[string]int // 当局累计分
	roundScores map[string]int // 本回合得分
	departed    map[string]protocol.PlayerResult

	word        string
	options     []string
	revealed    map[int]bool            // 全局已揭示位置
	personal    map[string]map[int]bool // 每用户额外揭示位置
	hintCredits map[string]int
	lastHint    map[string]time.Time
	guessed     map[string]bool
	roundEnded  bool
	timeLeft    int

	aiPool []string

	choiceTimer *time.Timer
	nextTimer   *time.Timer
	ticker      *secondTicker
}

func newTurnEngine(s *Session) *turnEngine {
	return &turnEngine{
		s:           s,
		totalRounds: s.settings.Rounds,
		scores:      make(map[string]int),
		departed:    make(map[string]protocol.PlayerResult),
		personal:    make(map[string]map[int]bool),
		hintCredits: make(map[string]int),
		lastHint:    make(map[string]time.Time),
	}
}

// --- 生命周期 ---

func (e *turnEngine) start() {
	players := e.s.activePlayers()
	e.turnOrder = make([]string, len(players))
	for i, p := range players {
		e.turnOrder[i] = p.ID
		e.scores[p.ID] = 0
	}
	rand.Shuffle(len(e.turnOrder), func(i, j int) {
		e.turnOrder[i], e.turnOrder[j] = e.turnOrder[j], e.turnOrder[i]
	})

	e.round = 1
	e.drawerIdx = 0
	e.turnCount = 1

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgGameStarted, protocol.GameStartedPayload{
		Mode:        e.s.settings.Mode,
		TotalRounds: e.totalRounds,
		TurnOrder:   e.turnOrder,
	}))

	if e.s.settings.Mode == protocol.ModeThemed {
		e.fillThemePool(len(players))
	}

	e.startTurn()
}

// fillThemePool 异步预取主题词池
// 池大小保证 玩家数×轮数×候选数×5，避免一局之内重复
func (e *turnEngine) fillThemePool(playerCount int) {
	if e.s.themes == nil {
		return
	}
	size := playerCount * e.totalRounds * e.s.settings.WordChoices * themePoolFactor
	theme := e.s.settings.Theme
	provider := e.s.themes

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := provider.ThemeWords(ctx, theme, size)
		if err != nil {
			log.Printf("⚠️ 主题词池预取失败，将降级: %v", err)
			return
		}
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		e.s.mu.Lock()
		defer e.s.mu.Unlock()
		if e.s.engine != e {
			return // 游戏已结束
		}
		e.aiPool = pool
		log.Printf("🎨 房间 %s 主题词池就绪，共 %d 个", e.s.Code, len(pool))
	}()
}

func (e *turnEngine) tearDown() {
	e.s.stopTimer(&e.choiceTimer)
	e.s.stopTimer(&e.nextTimer)
	if e.ticker != nil {
		e.ticker.stop()
		e.ticker = nil
	}
}

// --- 回合推进 ---

// startTurn 新回合：重置回合状态并进入选词
// 画手缺席时静默推进下标直到找到在场的画手
func (e *turnEngine) startTurn() {
	for skips := 0; ; skips++ {
		if skips > len(e.turnOrder) {
			e.endGame("玩家不足")
			return
		}
		if u := e.s.findUser(e.turnOrder[e.drawerIdx]); u != nil && !u.Spectator {
			break
		}
		if !e.advanceIndex() {
			e.endGame("完赛")
			return
		}
	}

	e.word = ""
	e.options = nil
	e.revealed = make(map[int]bool)
	e.personal = make(map[string]map[int]bool)
	e.guessed = make(map[string]bool)
	e.roundScores = make(map[string]int)
	e.roundEnded = false
	e.timeLeft = 0

	e.s.resetCanvasLocked()

	drawerID := e.turnOrder[e.drawerIdx]
	e.s.broadcast(protocol.MustNewMessage(protocol.MsgTurnStart, protocol.TurnStartPayload{
		DrawerID: drawerID,
		Round:    e.round,
		Turn:     e.turnCount,
	}))

	e.startWordSelection(drawerID)
}

// advanceIndex 推进画手下标，返回游戏是否还在进行
func (e *turnEngine) advanceIndex() bool {
	e.drawerIdx++
	e.turnCount++
	if e.drawerIdx >= len(e.turnOrder) {
		e.drawerIdx = 0
		e.round++
	}
	return e.round <= e.totalRounds
}

// nextTurn 回合间隔后的推进
func (e *turnEngine) nextTurn() {
	if e.s.engine != e {
		return // 游戏已被终止
	}
	if !e.advanceIndex() {
		e.endGame("完赛")
		return
	}
	e.startTurn()
}

// endGame 结算整局
func (e *turnEngine) endGame(reason string) {
	results := make([]protocol.PlayerResult, 0, len(e.turnOrder))
	for _, id := range e.turnOrder {
		if snap, ok := e.departed[id]; ok {
			results = append(results, snap)
			continue
		}
		if u := e.s.findUser(id); u != nil {
			results = append(results, protocol.PlayerResult{
				ID:       u.ID,
				Username: u.Username,
				Avatar:   u.Avatar,
				Score:    e.scores[id],
			})
		}
	}
	sortResults(results)
	e.s.finishGame(results, reason)
}

// --- 选词 ---

func (e *turnEngine) startWordSelection(drawerID string) {
	timeout := e.s.settings.WordChoiceTime
	e.s.broadcast(protocol.MustNewMessage(protocol.MsgWordSelection, protocol.WordSelectionPayload{
		DrawerID: drawerID,
		Timeout:  timeout,
	}))

	switch e.s.settings.Mode {
	case protocol.ModeCustom:
		e.s.sendTo(drawerID, protocol.MustNewMessage(protocol.MsgTypeWord, protocol.TypeWordPayload{
			Timeout:   timeout,
			MaxLength: e.s.settings.MaxWordLength,
		}))
		// 超时用随机词库词兜底
		e.choiceTimer = e.s.schedule(time.Duration(timeout)*time.Second, func() {
			e.finalizeWord(e.s.dict.RandomWord())
		})

	case protocol.ModeThemed:
		e.offerThemeWords(drawerID)

	default:
		e.offerWords(drawerID, e.s.dict.RandomWords(e.s.settings.WordChoices))
	}
}

// offerThemeWords 主题模式候选：词池 → 即时生成 → 静态词库
func (e *turnEngine) offerThemeWords(drawerID string) {
	n := e.s.settings.WordChoices
	if len(e.aiPool) >= n {
		opts := e.aiPool[:n]
		e.aiPool = e.aiPool[n:]
		e.offerWords(drawerID, opts)
		return
	}

	if e.s.themes == nil {
		e.offerWords(drawerID, e.s.dict.RandomWords(n))
		return
	}

	// 池已耗尽，即时生成；生成失败降级到词库。
	// 生成期间先挂上选词超时兜底，避免生成拖过选词时限
	e.choiceTimer = e.s.schedule(time.Duration(e.s.settings.WordChoiceTime)*time.Second, func() {
		e.finalizeWord(e.s.dict.RandomWord())
	})

	theme := e.s.settings.Theme
	provider := e.s.themes
	dict := e.s.dict
	turn := e.turnCount

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts, err := provider.ThemeWords(ctx, theme, n)
		if err != nil || len(opts) < n {
			if err != nil {
				log.Printf("⚠️ 主题词即时生成失败，使用词库: %v", err)
			}
			opts = dict.RandomWords(n)
		}

		e.s.mu.Lock()
		defer e.s.mu.Unlock()
		// 回合已推进或词已确定时丢弃结果
		if e.s.engine != e || e.turnCount != turn || e.word != "" || e.roundEnded {
			return
		}
		e.offerWords(drawerID, opts[:n])
	}()
}

// offerWords 把候选词发给画手并启动选词超时
func (e *turnEngine) offerWords(drawerID string, opts []string) {
	e.s.stopTimer(&e.choiceTimer)
	e.options = opts
	e.s.sendTo(drawerID, protocol.MustNewMessage(protocol.MsgWordOptions, protocol.WordOptionsPayload{
		Words:   opts,
		Timeout: e.s.settings.WordChoiceTime,
	}))

	// 超时从候选中均匀随机确定一个
	e.choiceTimer = e.s.schedule(time.Duration(e.s.settings.WordChoiceTime)*time.Second, func() {
		if len(e.options) > 0 {
			e.finalizeWord(e.options[rand.IntN(len(e.options))])
		} else {
			e.finalizeWord(e.s.dict.RandomWord())
		}
	})
}

// chooseWord 画手从候选中明确选择
func (e *turnEngine) chooseWord(userID string, index int) {
	if userID != e.currentDrawerID() || index < 0 || index >= len(e.options) {
		return
	}
	e.finalizeWord(e.options[index])
}

// customWord 画手输入自定义词
func (e *turnEngine) customWord(userID, word string) error {
	if e.s.settings.Mode != protocol.ModeCustom || userID != e.currentDrawerID() {
		return apperrors.ErrNotYourTurn
	}
	word = words.Sanitize(word)
	if word == "" {
		return apperrors.ErrWordTooLong
	}
	if len([]rune(word)) > e.s.settings.MaxWordLength {
		return apperrors.ErrWordTooLong
	}
	e.finalizeWord(word)
	return nil
}

// finalizeWord 确定本回合的词并开始计时
// 显式选择和超时兜底只有一个会生效：词已确定时后到者是空操作
func (e *turnEngine) finalizeWord(word string) {
	if e.s.engine != e || e.word != "" || e.roundEnded {
		return
	}
	e.word = strings.ToUpper(words.Sanitize(word))
	e.options = nil
	e.s.stopTimer(&e.choiceTimer)

	e.timeLeft = e.s.settings.DrawTime
	drawerID := e.currentDrawerID()

	// 为非画手初始化个人提示额度
	for _, u := range e.s.activePlayers() {
		if u.ID != drawerID {
			e.hintCredits[u.ID] = e.s.settings.PersonalHints
		}
	}

	masked := protocol.MustNewMessage(protocol.MsgRoundStart, protocol.RoundStartPayload{
		Hint:     maskWord(e.word, e.revealed, nil),
		DrawTime: e.timeLeft,
	})
	e.s.broadcastExcept(drawerID, masked)
	e.s.sendTo(drawerID, protocol.MustNewMessage(protocol.MsgRoundStart, protocol.RoundStartPayload{
		Hint:     e.word,
		DrawTime: e.timeLeft,
	}))
	e.s.sendTo(drawerID, protocol.MustNewMessage(protocol.MsgYourWord, protocol.YourWordPayload{
		Word: e.word,
	}))

	e.ticker = e.s.everySecond(e.tick)
	log.Printf("✏️ 房间 %s 第 %d 回合开始，画手 %s", e.s.Code, e.turnCount, drawerID)
}

// --- 计时与提示 ---

// tick 每秒推进：时间广播、全局提示节奏、超时结束
func (e *turnEngine) tick() {
	if e.roundEnded || e.word == "" {
		return
	}
	e.timeLeft--
	if e.timeLeft < 0 {
		e.timeLeft = 0
	}

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgTimeUpdate, protocol.TimeUpdatePayload{
		TimeLeft: e.timeLeft,
	}))

	// 把绘画时长均分为 5 段，前 4 段结束时各放出一个字母
	if e.s.settings.HintsEnabled {
		interval := e.s.settings.DrawTime / 5
		if interval > 0 {
			elapsed := e.s.settings.DrawTime - e.timeLeft
			if elapsed%interval == 0 {
				if k := elapsed / interval; k >= 1 && k <= 4 {
					e.revealGlobalHint()
				}
			}
		}
	}

	if e.timeLeft <= 0 {
		e.endRound("time_up")
	}
}

// revealGlobalHint 向所有非画手揭示一个随机字母
func (e *turnEngine) revealGlobalHint() {
	if !revealRandom(e.word, e.revealed, nil, e.revealed) {
		return
	}
	drawerID := e.currentDrawerID()
	for _, u := range e.s.users {
		if u.ID == drawerID {
			continue
		}
		e.s.sendTo(u.ID, protocol.MustNewMessage(protocol.MsgHintUpdate, protocol.HintUpdatePayload{
			Hint: maskWord(e.word, e.revealed, e.personal[u.ID]),
		}))
	}
}

// requestHint 个人提示：消耗额度、受冷却约束、只对请求者可见
func (e *turnEngine) requestHint(userID string) {
	u := e.s.findUser(userID)
	if u == nil || u.Spectator || userID == e.currentDrawerID() {
		return
	}
	if e.word == "" || e.roundEnded || e.guessed[userID] {
		return
	}

	fail := func(reason string, cooldown int) {
		e.s.sendTo(userID, protocol.MustNewMessage(protocol.MsgHintFailed, protocol.HintFailedPayload{
			Reason:       reason,
			CooldownLeft: cooldown,
		}))
	}

	if e.hintCredits[userID] <= 0 {
		fail("no_hints_left", 0)
		return
	}
	if wait := personalHintCooldown - time.Since(e.lastHint[userID]); wait > 0 {
		fail("cooldown", int(wait.Seconds())+1)
		return
	}

	if e.personal[userID] == nil {
		e.personal[userID] = make(map[int]bool)
	}
	if !revealRandom(e.word, e.revealed, e.personal[userID], e.personal[userID]) {
		fail("nothing_to_reveal", 0)
		return
	}

	e.hintCredits[userID]--
	e.lastHint[userID] = time.Now()
	e.s.sendTo(userID, protocol.MustNewMessage(protocol.MsgPersonalHint, protocol.PersonalHintPayload{
		Hint:      maskWord(e.word, e.revealed, e.personal[userID]),
		HintsLeft: e.hintCredits[userID],
	}))
}

// --- 猜词 ---

// guess 处理一次猜测，命中返回 true（词条不再进入聊天广播）
func (e *turnEngine) guess(u *User, text string) bool {
	if e.word == "" || e.roundEnded {
		return false
	}
	drawerID := e.currentDrawerID()
	if u.ID == drawerID || e.guessed[u.ID] {
		return false
	}
	if !guessMatches(text, e.word, e.s.settings.AllowFuzzy) {
		return false
	}

	first := len(e.guessed) == 0
	e.guessed[u.ID] = true
	e.addScore(u.ID, guesserScore(e.timeLeft, e.s.settings.DrawTime, first))
	e.addScore(drawerID, drawerScore(len(e.s.activePlayers())))

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgPlayerGuessed, protocol.PlayerGuessedPayload{
		UserID:   u.ID,
		Username: u.Username,
	}))
	e.s.broadcast(protocol.MustNewMessage(protocol.MsgScoreUpdate, protocol.ScoreUpdatePayload{
		Scores: e.scores,
	}))

	// 已猜对者收到完整词
	e.s.sendTo(u.ID, protocol.MustNewMessage(protocol.MsgYourWord, protocol.YourWordPayload{Word: e.word}))

	if e.activeGuessed() >= len(e.s.activePlayers())-1 {
		e.endRound("all_guessed")
	}
	return true
}

// activeGuessed 仍在房间里的已猜对人数，离场者不计入交卷判定
func (e *turnEngine) activeGuessed() int {
	n := 0
	for _, p := range e.s.activePlayers() {
		if e.guessed[p.ID] {
			n++
		}
	}
	return n
}

func (e *turnEngine) addScore(id string, pts int) {
	e.scores[id] += pts
	e.roundScores[id] += pts
	if u := e.s.findUser(id); u != nil {
		u.Score = e.scores[id]
	}
}

// --- 回合结束 ---

// endRound 幂等的回合收尾：胜利判定和计时器在同一拍触发时只生效一次
func (e *turnEngine) endRound(reason string) {
	if e.roundEnded {
		return
	}
	e.roundEnded = true

	if e.ticker != nil {
		e.ticker.stop()
		e.ticker = nil
	}
	e.s.stopTimer(&e.choiceTimer)

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgRoundEnd, protocol.RoundEndPayload{
		Reason:      reason,
		Word:        e.word,
		RoundScores: e.roundScores,
		Scores:      e.scores,
	}))

	e.nextTimer = e.s.schedule(nextTurnDelay, e.nextTurn)
}

// --- 断线 ---

func (e *turnEngine) handleDisconnect(u *User) {
	if u.Spectator {
		return
	}
	if _, tracked := e.scores[u.ID]; tracked {
		e.departed[u.ID] = protocol.PlayerResult{
			ID:       u.ID,
			Username: u.Username,
			Avatar:   u.Avatar,
			Score:    e.scores[u.ID],
			Left:     true,
		}
	}

	if len(e.s.activePlayers()) < minActivePlayers {
		e.s.notice("玩家不足，游戏结束")
		e.endGame("玩家不足")
		return
	}

	if u.ID == e.currentDrawerID() && !e.roundEnded {
		e.s.notice(u.Username + " 离开了，本回合结束")
		e.endRound("drawer_left")
		return
	}

	// 离开的是未猜对的玩家时重新判定交卷条件
	if e.word != "" && !e.roundEnded && e.activeGuessed() >= len(e.s.activePlayers())-1 {
		e.endRound("all_guessed")
	}
}

// --- 画布路由 ---

func (e *turnEngine) currentDrawerID() string {
	if e.drawerIdx >= len(e.turnOrder) {
		return ""
	}
	return e.turnOrder[e.drawerIdx]
}

func (e *turnEngine) canDraw(u *User) bool {
	return u.ID == e.currentDrawerID() && e.word != "" && !e.roundEnded
}

func (e *turnEngine) surfaceFor(*User) *canvas.History { return nil }

func (e *turnEngine) audienceFor(*User) []string { return e.s.allUserIDs() }

// subscribe 猜词模式共用主画布，观战者无需订阅
func (e *turnEngine) subscribe(spectator *User, _ string) {
	e.s.sendTo(spectator.ID, protocol.MustNewMessage(protocol.MsgCanvasState, protocol.CanvasStatePayload{
		Actions: e.s.canvas.Log(),
	}))
}
