package session

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/protocol"
)

const (
	readyCheckTimeout = 30 * time.Second
	startCountdown    = 3 * time.Second
	minActivePlayers  = 2
)

// StartGame 房主发起开始，进入准备确认阶段
func (s *Session) StartGame(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID != s.leaderID {
		return apperrors.ErrNotLeader
	}
	if s.state != StateLobby {
		return apperrors.ErrGameStarted
	}
	if len(s.activePlayers()) < minActivePlayers {
		return apperrors.ErrNotEnough
	}

	s.state = StateReadyCheck
	s.ready = make(map[string]bool)

	s.broadcast(protocol.MustNewMessage(protocol.MsgReadyCheck, protocol.ReadyCheckPayload{
		Timeout: int(readyCheckTimeout.Seconds()),
	}))

	s.readyTimer = s.schedule(readyCheckTimeout, func() {
		if s.state == StateReadyCheck {
			s.cancelReadyCheck("确认超时，已返回大厅")
		}
	})
	return nil
}

// Ready 玩家确认或拒绝开始
func (s *Session) Ready(userID string, accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReadyCheck {
		return
	}
	u := s.findUser(userID)
	if u == nil || u.Spectator {
		return
	}

	if !accepted {
		s.cancelReadyCheck(u.Username + " 拒绝了本局")
		return
	}

	s.ready[userID] = true
	s.broadcast(protocol.MustNewMessage(protocol.MsgReadyUpdate, protocol.ReadyUpdatePayload{
		UserID:   userID,
		Accepted: true,
	}))

	for _, p := range s.activePlayers() {
		if !s.ready[p.ID] {
			return
		}
	}

	// 全员确认，开始倒计时
	s.stopTimer(&s.readyTimer)
	s.broadcast(protocol.MustNewMessage(protocol.MsgStartCountdown, protocol.StartCountdownPayload{
		Seconds: int(startCountdown.Seconds()),
	}))
	s.countdownTimer = s.schedule(startCountdown, func() {
		if s.state == StateReadyCheck {
			s.beginGame()
		}
	})
}

// cancelReadyCheck 取消确认流程回到大厅（调用方需持锁）
func (s *Session) cancelReadyCheck(reason string) {
	s.stopTimer(&s.readyTimer)
	s.stopTimer(&s.countdownTimer)
	s.state = StateLobby
	s.ready = nil
	s.notice(reason)
}

// beginGame 构建并启动模式引擎（调用方需持锁）
func (s *Session) beginGame() {
	if len(s.activePlayers()) < minActivePlayers {
		s.cancelReadyCheck("玩家人数不足，无法开始")
		return
	}

	s.state = StatePlaying
	s.ready = nil
	s.resetCanvasLocked()

	// 重置当局分数
	for _, u := range s.users {
		u.Score = 0
	}

	switch s.settings.Mode {
	case protocol.ModeCreative:
		s.engine = newCreativeEngine(s)
	case protocol.ModeTelephone:
		s.engine = newTelephoneEngine(s)
	default:
		s.engine = newTurnEngine(s)
	}

	log.Printf("🎮 房间 %s 开始游戏，模式 %s，玩家 %d 人",
		s.Code, s.settings.Mode, len(s.activePlayers()))
	s.engine.start()
}

// finishGame 结算并回到大厅（调用方需持锁）
// results 已按得分降序排列
func (s *Session) finishGame(results []protocol.PlayerResult, reason string) {
	s.broadcast(protocol.MustNewMessage(protocol.MsgGameEnded, protocol.GameEndedPayload{
		Results: results,
		Reason:  reason,
	}))

	if s.recorder != nil && len(results) > 0 {
		// 排行榜写入不阻塞房间
		recorder := s.recorder
		entries := make([]protocol.PlayerResult, len(results))
		copy(entries, results)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for rank, r := range entries {
				if r.Left {
					continue
				}
				if err := recorder.RecordGameResult(ctx, r.ID, r.Username, r.Score, rank == 0); err != nil {
					log.Printf("记录游戏结果失败: %v", err)
				}
			}
		}()
	}

	if s.engine != nil {
		s.engine.tearDown()
		s.engine = nil
	}
	s.state = StateLobby
	s.resetCanvasLocked()

	log.Printf("🏁 房间 %s 游戏结束: %s", s.Code, reason)
}

// sortResults 按分数降序排序结算条目
func sortResults(results []protocol.PlayerResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
