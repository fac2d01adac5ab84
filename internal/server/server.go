package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/sketch-party/internal/config"
	"github.com/palemoky/sketch-party/internal/game/room"
	"github.com/palemoky/sketch-party/internal/game/words"
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/server/handler"
	"github.com/palemoky/sketch-party/internal/server/storage"
	"github.com/palemoky/sketch-party/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
	// 画笔消息小而密集，压缩的 CPU 开销抵不上节省的流量
	EnableCompression: false,
}

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client
	leaderboard *storage.Leaderboard
	registry    *room.Registry
	clients     map[string]*Client
	clientsMu   sync.RWMutex
	handler     *handler.Handler

	// 安全组件
	connLimiter    *ConnRateLimiter
	messageLimiter *MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMu   sync.RWMutex
	maintenanceMode bool
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := &Server{
		config:         cfg,
		redis:          rdb,
		leaderboard:    storage.NewLeaderboard(rdb),
		clients:        make(map[string]*Client),
		connLimiter:    NewConnRateLimiter(30, time.Minute),
		messageLimiter: NewMessageRateLimiter(cfg.Server.MessagesPerSec),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	// 词库与主题词服务
	dict := words.NewDictionary(nil)
	var themes types.ThemeProvider
	if cfg.Theme.Endpoint != "" {
		themes = words.NewHTTPThemeProvider(cfg.Theme.Endpoint, cfg.Theme.TimeoutDuration())
	}

	// 房间注册表
	s.registry = room.NewRegistry(&cfg.Game, dict, themes, s.leaderboard)

	// 消息处理器
	s.handler = handler.NewHandler(handler.Deps{
		Server:      s,
		Registry:    s.registry,
		Leaderboard: s.leaderboard,
	})

	log.Printf("🔒 安全配置: 消息限制=%d/s, 最大连接数=%d",
		cfg.Server.MessagesPerSec, cfg.Server.MaxConnections)

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)

	// 启动监控 goroutine
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	server := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 房间: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.registry.Count(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// EnterMaintenanceMode 进入维护模式，拒绝新连接并通知大厅用户
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastToLobby(protocol.NewErrorMessageWithText(
		protocol.ErrCodeMaintenance, "🔧 服务器即将维护，暂停创建新房间"))

	log.Println("🔧 进入维护模式：停止接受新连接")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	// 停止房间清理协程
	s.registry.Stop()

	// 通知所有在线用户
	s.Broadcast(protocol.NewErrorMessageWithText(
		protocol.ErrCodeMaintenance, "服务器维护中，连接即将断开"))

	// 关闭所有客户端连接
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	// 关闭 Redis
	_ = s.redis.Close()

	log.Println("服务器已关闭")
}
