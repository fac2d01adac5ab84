package session

import (
	"sync"
	"time"
)

// schedule 注册一次性延时任务，回调在 Session 锁内执行
// 阶段提前结束时必须 stop 掉对应的定时器，回调内的幂等保护兜底迟到触发
func (s *Session) schedule(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
	})
}

// stopTimer 停止并清空定时器引用
func (s *Session) stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// secondTicker 每秒回调一次的计时器，回调在 Session 锁内执行
type secondTicker struct {
	done chan struct{}
	once sync.Once
}

// everySecond 启动秒级计时器
func (s *Session) everySecond(fn func()) *secondTicker {
	t := &secondTicker{done: make(chan struct{})}
	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-tick.C:
				s.mu.Lock()
				select {
				case <-t.done:
					// stop 和 tick 赛跑时以 stop 为准
					s.mu.Unlock()
					return
				default:
				}
				fn()
				s.mu.Unlock()
			}
		}
	}()
	return t
}

// stop 停止计时器，可重复调用
func (t *secondTicker) stop() {
	t.once.Do(func() { close(t.done) })
}
