package session

import (
	"log"
	"math/rand/v2"
	"time"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/game/canvas"
	"github.com/palemoky/sketch-party/internal/game/words"
	"github.com/palemoky/sketch-party/internal/protocol"
)

const (
	telephoneGraceDelay = 3 * time.Second // 提交宽限
	telephoneGapDelay   = 3 * time.Second // 轮次间隔
	placeholderText     = "…"             // 缺席者的占位提交
)

// telephoneEngine 传话模式：写-画交替的接力链
//
// 每个玩家各自拥有一条链，座位顺序在整局中固定；
// 第 R 轮第 I 个座位的玩家续写座位 (I−(R−1)) mod N 玩家的链，
// N 轮后每条链恰好被每个玩家各续一次
type telephoneEngine struct {
	s *Session

	seats       []string
	round       int
	totalRounds int
	closedRound int
	roundOpen   bool // 收轮后、下一轮开始前为 false

	chains   map[string][]protocol.ChainStep // 链主 → 步骤
	pending  map[string]protocol.ChainStep   // 本轮已提交
	surfaces map[string]*canvas.History      // 绘画轮的实时缓冲
	subs     map[string]string               // 观战者 → 跟随目标
	departed map[string]protocol.PlayerResult

	roundTimer *time.Timer
	gapTimer   *time.Timer
}

func newTelephoneEngine(s *Session) *telephoneEngine {
	return &telephoneEngine{
		s:        s,
		chains:   make(map[string][]protocol.ChainStep),
		subs:     make(map[string]string),
		departed: make(map[string]protocol.PlayerResult),
	}
}

// --- 生命周期 ---

func (e *telephoneEngine) start() {
	for _, p := range e.s.activePlayers() {
		e.seats = append(e.seats, p.ID)
		e.chains[p.ID] = nil
	}
	rand.Shuffle(len(e.seats), func(i, j int) {
		e.seats[i], e.seats[j] = e.seats[j], e.seats[i]
	})

	// 轮数等于玩家数，每条链经过每个人恰好一次
	e.totalRounds = len(e.seats)
	e.round = 1

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgGameStarted, protocol.GameStartedPayload{
		Mode:        protocol.ModeTelephone,
		TotalRounds: e.totalRounds,
	}))
	e.startRound()
}

func (e *telephoneEngine) tearDown() {
	e.s.stopTimer(&e.roundTimer)
	e.s.stopTimer(&e.gapTimer)
}

// --- 轮次推进 ---

// writingRound 奇数轮写字，偶数轮画画
func (e *telephoneEngine) writingRound() bool {
	return e.round%2 == 1
}

func (e *telephoneEngine) phaseName() string {
	if e.writingRound() {
		return "writing"
	}
	return "drawing"
}

// chainSeat 第 r 轮第 i 个座位要续写的链主座位
// 加 n 消除负数取模
func (e *telephoneEngine) chainSeat(i, r int) int {
	n := len(e.seats)
	return ((i-(r-1))%n + n) % n
}

func (e *telephoneEngine) roundSeconds() int {
	if e.writingRound() {
		return e.s.settings.WriteTime
	}
	return e.s.settings.DrawTime
}

func (e *telephoneEngine) startRound() {
	e.pending = make(map[string]protocol.ChainStep)
	e.roundOpen = true

	e.surfaces = nil
	if !e.writingRound() {
		e.surfaces = make(map[string]*canvas.History, len(e.seats))
		for _, id := range e.seats {
			e.surfaces[id] = canvas.NewHistory()
		}
	}

	seconds := e.roundSeconds()
	for i, playerID := range e.seats {
		if e.s.findUser(playerID) == nil {
			continue // 缺席者的提交在收轮时补占位
		}
		e.s.sendTo(playerID, protocol.MustNewMessage(protocol.MsgTelephoneRound, protocol.TelephoneRoundPayload{
			Round:   e.round,
			Total:   e.totalRounds,
			Phase:   e.phaseName(),
			Prompt:  e.promptForSeat(i),
			Seconds: seconds,
		}))
	}

	// 观战者收到跟随目标的题面
	for spec, target := range e.subs {
		e.sendSpectatorRound(spec, target)
	}

	e.s.stopTimer(&e.roundTimer)
	round := e.round
	e.roundTimer = e.s.schedule(time.Duration(seconds)*time.Second+telephoneGraceDelay, func() {
		if e.s.engine == e && e.round == round {
			e.closeRound()
		}
	})

	log.Printf("📞 房间 %s 传话第 %d/%d 轮 (%s)", e.s.Code, e.round, e.totalRounds, e.phaseName())
}

// promptForSeat 第 i 个座位本轮的题面：来源链的最后一步，第一轮为空
func (e *telephoneEngine) promptForSeat(i int) *protocol.ChainStep {
	owner := e.seats[e.chainSeat(i, e.round)]
	steps := e.chains[owner]
	if len(steps) == 0 {
		return nil
	}
	last := steps[len(steps)-1]
	return &last
}

// submit 玩家提交本轮内容；绘画轮以服务端缓冲为准
func (e *telephoneEngine) submit(userID, text string) error {
	u := e.s.findUser(userID)
	if u == nil || u.Spectator {
		return apperrors.ErrSpectatorOnly
	}
	if e.seatOf(userID) == -1 {
		return apperrors.ErrNotYourTurn
	}
	if !e.roundOpen {
		return nil // 轮间隙里的提交直接忽略
	}
	if _, done := e.pending[userID]; done {
		return nil // 重复提交是空操作
	}

	step := protocol.ChainStep{
		Author:   u.Username,
		AuthorID: userID,
	}
	if e.writingRound() {
		step.Type = "text"
		step.Text = words.Sanitize(text)
		if step.Text == "" {
			step.Text = placeholderText
		}
	} else {
		step.Type = "drawing"
		if surface := e.surfaces[userID]; surface != nil {
			step.Drawing = surface.Snapshot()
		}
	}
	e.pending[userID] = step

	// 在场玩家全部交齐则提前收轮
	if e.allSubmitted() {
		e.closeRound()
	}
	return nil
}

func (e *telephoneEngine) allSubmitted() bool {
	for _, id := range e.seats {
		if u := e.s.findUser(id); u == nil || u.Spectator {
			continue
		}
		if _, done := e.pending[id]; !done {
			return false
		}
	}
	return true
}

// closeRound 收轮：缺失的提交补占位，保证每条链每轮恰好前进一步
// 提前交齐与超时触发只会生效一次
func (e *telephoneEngine) closeRound() {
	if !e.roundOpen || e.closedRound >= e.round {
		return
	}
	e.roundOpen = false
	e.closedRound = e.round
	e.s.stopTimer(&e.roundTimer)

	for i, contributor := range e.seats {
		step, ok := e.pending[contributor]
		if !ok {
			step = protocol.ChainStep{
				Author:   e.displayName(contributor),
				AuthorID: contributor,
			}
			if e.writingRound() {
				step.Type = "text"
				step.Text = placeholderText
			} else {
				step.Type = "drawing"
			}
		}
		owner := e.seats[e.chainSeat(i, e.round)]
		e.chains[owner] = append(e.chains[owner], step)
	}

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgTelephoneRoundEnd, protocol.TelephoneRoundEndPayload{
		Round: e.round,
	}))

	if e.round >= e.totalRounds {
		e.finishWithRecap("完赛")
		return
	}

	e.round++
	e.gapTimer = e.s.schedule(telephoneGapDelay, func() {
		if e.s.engine == e {
			e.startRound()
		}
	})
}

// finishWithRecap 广播全部链条回放并结束
func (e *telephoneEngine) finishWithRecap(reason string) {
	recap := make([]protocol.TelephoneChain, 0, len(e.seats))
	for _, owner := range e.seats {
		recap = append(recap, protocol.TelephoneChain{
			OwnerID: owner,
			Owner:   e.displayName(owner),
			Steps:   e.chains[owner],
		})
	}
	e.s.broadcast(protocol.MustNewMessage(protocol.MsgTelephoneGameEnded, protocol.TelephoneGameEndedPayload{
		Chains: recap,
	}))

	// 传话模式没有分数，不进排行榜
	e.s.finishGame(nil, reason)
}

// --- 断线 ---

func (e *telephoneEngine) handleDisconnect(u *User) {
	if u.Spectator {
		delete(e.subs, u.ID)
		return
	}
	if e.seatOf(u.ID) != -1 {
		e.departed[u.ID] = protocol.PlayerResult{
			ID:       u.ID,
			Username: u.Username,
			Avatar:   u.Avatar,
			Left:     true,
		}
	}

	if len(e.s.activePlayers()) < minActivePlayers {
		e.s.notice("玩家不足，游戏结束")
		e.finishWithRecap("玩家不足")
		return
	}

	// 缺席者不再计入交齐判定
	if e.allSubmitted() {
		e.closeRound()
	}
}

// --- 画布路由与观战 ---

func (e *telephoneEngine) seatOf(id string) int {
	for i, s := range e.seats {
		if s == id {
			return i
		}
	}
	return -1
}

func (e *telephoneEngine) canDraw(u *User) bool {
	if e.writingRound() || e.surfaces[u.ID] == nil {
		return false
	}
	_, submitted := e.pending[u.ID]
	return !submitted
}

func (e *telephoneEngine) surfaceFor(u *User) *canvas.History {
	if e.surfaces == nil {
		return nil
	}
	return e.surfaces[u.ID]
}

func (e *telephoneEngine) audienceFor(u *User) []string {
	out := []string{u.ID}
	for spec, target := range e.subs {
		if target == u.ID {
			out = append(out, spec)
		}
	}
	return out
}

// subscribe 观战者跟随某个座位上的玩家
func (e *telephoneEngine) subscribe(spectator *User, targetID string) {
	if e.seatOf(targetID) == -1 {
		return
	}
	e.subs[spectator.ID] = targetID
	e.sendSpectatorRound(spectator.ID, targetID)
}

// sendSpectatorRound 给观战者重放目标的题面和画布
func (e *telephoneEngine) sendSpectatorRound(spectatorID, targetID string) {
	seat := e.seatOf(targetID)
	if seat == -1 {
		return
	}
	e.s.sendTo(spectatorID, protocol.MustNewMessage(protocol.MsgTelephoneRound, protocol.TelephoneRoundPayload{
		Round:   e.round,
		Total:   e.totalRounds,
		Phase:   e.phaseName(),
		Prompt:  e.promptForSeat(seat),
		Seconds: e.roundSeconds(),
	}))
	if surface := e.surfaceFor(&User{ID: targetID}); surface != nil {
		e.s.sendTo(spectatorID, protocol.MustNewMessage(protocol.MsgCanvasState, protocol.CanvasStatePayload{
			OwnerID: targetID,
			Actions: surface.Log(),
		}))
	}
}

func (e *telephoneEngine) displayName(id string) string {
	if u := e.s.findUser(id); u != nil {
		return u.Username
	}
	if snap, ok := e.departed[id]; ok {
		return snap.Username
	}
	return id
}
