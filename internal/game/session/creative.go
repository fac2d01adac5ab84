package session

import (
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/game/canvas"
	"github.com/palemoky/sketch-party/internal/protocol"
)

// 创意模式阶段
type creativePhase int

const (
	creativeDrawing creativePhase = iota
	creativeIntermission
	creativePresentation
	creativeVoting
	creativeScoring
)

const (
	intermissionDelay = 5 * time.Second  // 绘画结束后的缓冲
	voteGraceDelay    = 5 * time.Second  // 全员投完后的宽限
	scoringDelay      = 15 * time.Second // 结果展示时长
	podiumSize        = 3
)

// creativeEngine 创意模式：同题各画 → 逐幅展示 → 互相打分 → 计分
//
// 每个玩家在独立画布上作画，各有自己的撤销/重做栈；
// 观战者订阅某个玩家后实时跟随其画布
type creativeEngine struct {
	s *Session

	phase        creativePhase
	round        int
	totalRounds  int
	word         string
	participants []string

	surfaces map[string]*canvas.History
	drawings map[string][]protocol.CanvasAction
	votes    map[string]map[string]int // 被评者 → 评分者 → 星级
	order    []string                  // 展示顺序
	cursor   int
	subs     map[string]string // 观战者 → 跟随目标

	scores   map[string]int
	departed map[string]protocol.PlayerResult

	phaseTimer     *time.Timer
	graceScheduled bool
}

func newCreativeEngine(s *Session) *creativeEngine {
	return &creativeEngine{
		s:           s,
		totalRounds: s.settings.Rounds,
		scores:      make(map[string]int),
		departed:    make(map[string]protocol.PlayerResult),
		subs:        make(map[string]string),
	}
}

// --- 生命周期 ---

func (e *creativeEngine) start() {
	for _, p := range e.s.activePlayers() {
		e.participants = append(e.participants, p.ID)
		e.scores[p.ID] = 0
	}
	e.round = 1

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgGameStarted, protocol.GameStartedPayload{
		Mode:        protocol.ModeCreative,
		TotalRounds: e.totalRounds,
	}))
	e.startDrawing()
}

func (e *creativeEngine) tearDown() {
	e.s.stopTimer(&e.phaseTimer)
}

// --- 阶段推进 ---

func (e *creativeEngine) startDrawing() {
	e.phase = creativeDrawing
	e.word = e.s.dict.RandomWord()
	e.drawings = nil
	e.votes = nil
	e.order = nil
	e.graceScheduled = false

	// 每个在场玩家一块独立画布
	e.surfaces = make(map[string]*canvas.History)
	for _, p := range e.s.activePlayers() {
		e.surfaces[p.ID] = canvas.NewHistory()
	}

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgCreativeDrawing, protocol.CreativeDrawingPayload{
		Word:     e.word,
		DrawTime: e.s.settings.DrawTime,
		Round:    e.round,
	}))

	e.s.stopTimer(&e.phaseTimer)
	e.phaseTimer = e.s.schedule(time.Duration(e.s.settings.DrawTime)*time.Second, e.startIntermission)

	log.Printf("🖌️ 房间 %s 创意模式第 %d 轮，题目 %q", e.s.Code, e.round, e.word)
}

func (e *creativeEngine) startIntermission() {
	if e.s.engine != e || e.phase != creativeDrawing {
		return
	}
	e.phase = creativeIntermission

	// 固化各画布
	e.drawings = make(map[string][]protocol.CanvasAction, len(e.surfaces))
	for id, surface := range e.surfaces {
		e.drawings[id] = surface.Snapshot()
	}

	e.s.broadcast(protocol.MustNewMessage(protocol.MsgCreativeIntermission, protocol.CreativeIntermissionPayload{
		Seconds: int(intermissionDelay.Seconds()),
	}))

	e.s.stopTimer(&e.phaseTimer)
	e.phaseTimer = e.s.schedule(intermissionDelay, e.startPresentation)
}

func (e *creativeEngine) startPresentation() {
	if e.s.engine != e || e.phase != creativeIntermission {
		return
	}
	e.phase = creativePresentation

	e.order = make([]string, 0, len(e.drawings))
	for id := range e.drawings {
		e.order = append(e.order, id)
	}
	sort.Strings(e.order)
	rand.Shuffle(len(e.order), func(i, j int) { e.order[i], e.order[j] = e.order[j], e.order[i] })
	e.cursor = 0

	e.presentNext()
}

// presentNext 逐幅展示，看完最后一幅进入投票
func (e *creativeEngine) presentNext() {
	if e.s.engine != e || e.phase != creativePresentation {
		return
	}
	if e.cursor >= len(e.order) {
		e.startVoting()
		return
	}

	artistID := e.order[e.cursor]
	payload := protocol.CreativePresentationPayload{
		Index:   e.cursor + 1,
		Total:   len(e.order),
		Drawing: e.drawings[artistID],
		Seconds: e.s.settings.PresentationTime,
	}
	if !e.s.settings.AnonymizeArt {
		payload.ArtistID = artistID
		payload.Artist = e.displayName(artistID)
	}
	e.s.broadcast(protocol.MustNewMessage(protocol.MsgCreativePresentation, payload))

	e.s.stopTimer(&e.phaseTimer)
	e.phaseTimer = e.s.schedule(time.Duration(e.s.settings.PresentationTime)*time.Second, func() {
		e.cursor++
		e.presentNext()
	})
}

func (e *creativeEngine) startVoting() {
	e.phase = creativeVoting
	e.votes = make(map[string]map[string]int)
	e.graceScheduled = false

	entries := make([]protocol.CreativeDrawingEntry, 0, len(e.order))
	for _, id := range e.order {
		entries = append(entries, protocol.CreativeDrawingEntry{
			ArtistID: id,
			Artist:   e.displayName(id),
			Drawing:  e.drawings[id],
		})
	}
	e.s.broadcast(protocol.MustNewMessage(protocol.MsgCreativeVoting, protocol.CreativeVotingPayload{
		Drawings: entries,
		Seconds:  e.s.settings.VoteTime,
	}))

	e.s.stopTimer(&e.phaseTimer)
	e.phaseTimer = e.s.schedule(time.Duration(e.s.settings.VoteTime)*time.Second, e.startScoring)
}

// vote 打分：1-5 星，不能给自己，每幅一票
func (e *creativeEngine) vote(voterID, targetID string, stars int) error {
	if e.phase != creativeVoting {
		return apperrors.ErrGameNotStart
	}
	voter := e.s.findUser(voterID)
	if voter == nil || voter.Spectator {
		return apperrors.ErrSpectatorOnly
	}
	if stars < 1 || stars > 5 {
		return apperrors.ErrInvalidVote
	}
	if voterID == targetID {
		return apperrors.ErrSelfVote
	}
	if _, ok := e.drawings[targetID]; !ok {
		return apperrors.ErrInvalidVote
	}
	if _, voted := e.votes[targetID][voterID]; voted {
		return apperrors.ErrAlreadyVoted
	}

	if e.votes[targetID] == nil {
		e.votes[targetID] = make(map[string]int)
	}
	e.votes[targetID][voterID] = stars

	e.checkVotingComplete()
	return nil
}

// checkVotingComplete 全员互评完成后进入 5 秒宽限再计分
func (e *creativeEngine) checkVotingComplete() {
	if e.graceScheduled {
		return
	}
	active := e.s.activePlayers()
	for _, voter := range active {
		for _, target := range active {
			if voter.ID == target.ID {
				continue
			}
			if _, ok := e.drawings[target.ID]; !ok {
				continue
			}
			if _, voted := e.votes[target.ID][voter.ID]; !voted {
				return
			}
		}
	}

	e.graceScheduled = true
	e.s.stopTimer(&e.phaseTimer)
	e.phaseTimer = e.s.schedule(voteGraceDelay, e.startScoring)
}

func (e *creativeEngine) startScoring() {
	if e.s.engine != e || e.phase != creativeVoting {
		return
	}
	e.phase = creativeScoring

	// 每个被评者的得分是收到的星星总和
	results := make([]protocol.CreativeResultEntry, 0, len(e.drawings))
	for id := range e.drawings {
		total := 0
		for _, stars := range e.votes[id] {
			total += stars
		}
		results = append(results, protocol.CreativeResultEntry{
			ArtistID: id,
			Artist:   e.displayName(id),
			Stars:    total,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Stars > results[j].Stars })

	podium := make([]protocol.CreativeDrawingEntry, 0, podiumSize)
	for i, r := range results {
		if i >= podiumSize {
			break
		}
		podium = append(podium, protocol.CreativeDrawingEntry{
			ArtistID: r.ArtistID,
			Artist:   r.Artist,
			Drawing:  e.drawings[r.ArtistID],
		})
	}

	for _, r := range results {
		e.scores[r.ArtistID] += r.Stars
		if u := e.s.findUser(r.ArtistID); u != nil {
			u.Score = e.scores[r.ArtistID]
		}
	}

	final := e.round >= e.totalRounds
	e.s.broadcast(protocol.MustNewMessage(protocol.MsgCreativeResults, protocol.CreativeResultsPayload{
		Results: results,
		Podium:  podium,
		Scores:  e.scores,
		Round:   e.round,
		Final:   final,
	}))

	e.s.stopTimer(&e.phaseTimer)
	e.phaseTimer = e.s.schedule(scoringDelay, e.advanceRound)
}

func (e *creativeEngine) advanceRound() {
	if e.s.engine != e || e.phase != creativeScoring {
		return
	}
	e.round++
	if e.round > e.totalRounds {
		e.endGame("完赛")
		return
	}
	e.startDrawing()
}

func (e *creativeEngine) endGame(reason string) {
	results := make([]protocol.PlayerResult, 0, len(e.participants))
	for _, id := range e.participants {
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

// --- 断线 ---

func (e *creativeEngine) handleDisconnect(u *User) {
	if u.Spectator {
		delete(e.subs, u.ID)
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

	// 少了一个评分者，剩下的人可能已经互评完毕
	if e.phase == creativeVoting {
		e.checkVotingComplete()
	}
}

// --- 画布路由与观战 ---

func (e *creativeEngine) canDraw(u *User) bool {
	return e.phase == creativeDrawing && e.surfaces[u.ID] != nil
}

func (e *creativeEngine) surfaceFor(u *User) *canvas.History {
	return e.surfaces[u.ID]
}

// audienceFor 本人加上跟随他的观战者
func (e *creativeEngine) audienceFor(u *User) []string {
	out := []string{u.ID}
	for spec, target := range e.subs {
		if target == u.ID {
			out = append(out, spec)
		}
	}
	return out
}

// subscribe 观战者跟随某个玩家，重复订阅会重放当前状态
func (e *creativeEngine) subscribe(spectator *User, targetID string) {
	surface := e.surfaces[targetID]
	if surface == nil {
		return
	}
	e.subs[spectator.ID] = targetID

	e.s.sendTo(spectator.ID, protocol.MustNewMessage(protocol.MsgCreativeDrawing, protocol.CreativeDrawingPayload{
		Word:     e.word,
		DrawTime: e.s.settings.DrawTime,
		Round:    e.round,
	}))
	e.s.sendTo(spectator.ID, protocol.MustNewMessage(protocol.MsgCanvasState, protocol.CanvasStatePayload{
		OwnerID: targetID,
		Actions: surface.Log(),
	}))
}

func (e *creativeEngine) displayName(id string) string {
	if u := e.s.findUser(id); u != nil {
		return u.Username
	}
	if snap, ok := e.departed[id]; ok {
		return snap.Username
	}
	return id
}
