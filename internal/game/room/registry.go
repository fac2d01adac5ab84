package room

import (
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/config"
	"github.com/palemoky/sketch-party/internal/game/session"
	"github.com/palemoky/sketch-party/internal/types"
)

const (
	roomCodeLength = 6            // 房间号长度
	roomCodeChars  = "0123456789" // 房间号字符集

	cleanupInterval = 1 * time.Minute
)

// entry 注册表里的一个房间
type entry struct {
	session   *session.Session
	createdAt time.Time
}

// Registry 房间注册表：按房间号管理会话的创建、加入和销毁
//
// 最后一个用户离开时房间立即销毁，清理协程兜底回收漏网的空房间
type Registry struct {
	cfg      *config.GameConfig
	dict     types.Dictionary
	themes   types.ThemeProvider
	recorder types.ResultsRecorder

	mu    sync.RWMutex
	rooms map[string]*entry
	done  chan struct{}
	once  sync.Once
}

// NewRegistry 创建注册表并启动清理协程
func NewRegistry(cfg *config.GameConfig, dict types.Dictionary, themes types.ThemeProvider, recorder types.ResultsRecorder) *Registry {
	r := &Registry{
		cfg:      cfg,
		dict:     dict,
		themes:   themes,
		recorder: recorder,
		rooms:    make(map[string]*entry),
		done:     make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// Stop 停止清理协程
func (r *Registry) Stop() {
	r.once.Do(func() { close(r.done) })
}

// Create 创建房间并让创建者加入
func (r *Registry) Create(client types.ClientInterface, username, avatar string) (*session.Session, *session.User, error) {
	r.mu.Lock()
	code := r.generateRoomCode()
	s := session.New(code, r.cfg, r.dict, r.themes, r.recorder)
	r.rooms[code] = &entry{session: s, createdAt: time.Now()}
	r.mu.Unlock()

	u, err := s.Join(client, username, avatar, false)
	if err != nil {
		r.destroy(code)
		return nil, nil, err
	}
	client.SetRoom(code)

	log.Printf("🏠 房间 %s 已创建，房主 %s", code, u.Username)
	return s, u, nil
}

// Join 按房间号加入
func (r *Registry) Join(client types.ClientInterface, code, username, avatar string, spectator bool) (*session.Session, *session.User, error) {
	s := r.Get(code)
	if s == nil {
		return nil, nil, apperrors.ErrRoomNotFound
	}

	u, err := s.Join(client, username, avatar, spectator)
	if err != nil {
		return nil, nil, err
	}
	client.SetRoom(code)
	return s, u, nil
}

// Leave 用户离开当前房间，空房间立即销毁
func (r *Registry) Leave(client types.ClientInterface) {
	code := client.GetRoom()
	if code == "" {
		return
	}
	client.SetRoom("")

	s := r.Get(code)
	if s == nil {
		return
	}
	if remaining := s.Leave(client.GetID()); remaining == 0 {
		r.destroy(code)
	}
}

// Get 按房间号查找会话
func (r *Registry) Get(code string) *session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.rooms[code]; ok {
		return e.session
	}
	return nil
}

// Count 当前房间数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// destroy 关闭并移除房间
func (r *Registry) destroy(code string) {
	r.mu.Lock()
	e, ok := r.rooms[code]
	if ok {
		delete(r.rooms, code)
	}
	r.mu.Unlock()

	if ok {
		e.session.Close()
		log.Printf("🧹 房间 %s 已销毁", code)
	}
}

// generateRoomCode 生成唯一房间号（调用方需持锁）
func (r *Registry) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := r.rooms[codeStr]; !exists {
			return codeStr
		}
	}
}

// cleanupLoop 定期回收空房间
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

// cleanup 正常路径上空房间在最后一人离开时销毁，这里兜底
func (r *Registry) cleanup() {
	timeout := r.cfg.RoomTimeoutDuration()

	r.mu.RLock()
	var stale []string
	for code, e := range r.rooms {
		if e.session.Empty() && time.Since(e.createdAt) > timeout {
			stale = append(stale, code)
		}
	}
	r.mu.RUnlock()

	for _, code := range stale {
		r.destroy(code)
		log.Printf("🧹 房间 %s 超时已清理", code)
	}
}
