package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
	Theme  ThemeConfig  `yaml:"theme"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`     // 最大并发连接数
	MessagesPerSec int    `yaml:"messages_per_second"` // 单客户端每秒消息上限
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏默认配置
type GameConfig struct {
	DrawTime         int `yaml:"draw_time"`         // 绘画时长（秒）
	WriteTime        int `yaml:"write_time"`        // 传话写字时长（秒）
	WordChoiceTime   int `yaml:"word_choice_time"`  // 选词超时（秒）
	WordChoices      int `yaml:"word_choices"`      // 候选词数量
	Rounds           int `yaml:"rounds"`            // 默认轮数
	MaxWordLength    int `yaml:"max_word_length"`   // 自定义词最大长度
	PersonalHints    int `yaml:"personal_hints"`    // 每回合个人提示次数
	PresentationTime int `yaml:"presentation_time"` // 创意模式展示时长（秒）
	VoteTime         int `yaml:"vote_time"`         // 创意模式投票时长（秒）
	MaxPlayers       int `yaml:"max_players"`       // 房间容量
	RoomTimeout      int `yaml:"room_timeout"`      // 空房间回收超时（分钟）
}

// ThemeConfig AI 主题词服务配置
type ThemeConfig struct {
	Endpoint string `yaml:"endpoint"` // 为空时禁用主题模式的 AI 生成
	Timeout  int    `yaml:"timeout"`  // 请求超时（秒）
}

// RoomTimeoutDuration 返回空房间回收超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// TimeoutDuration 返回主题词请求超时时长
func (c *ThemeConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults 填充默认值
func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 2037
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1000
	}
	if cfg.Server.MessagesPerSec == 0 {
		// 画笔动作密集，上限要给笔划留足余量
		cfg.Server.MessagesPerSec = 60
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.DrawTime == 0 {
		cfg.Game.DrawTime = 80
	}
	if cfg.Game.WriteTime == 0 {
		cfg.Game.WriteTime = 40
	}
	if cfg.Game.WordChoiceTime == 0 {
		cfg.Game.WordChoiceTime = 15
	}
	if cfg.Game.WordChoices == 0 {
		cfg.Game.WordChoices = 3
	}
	if cfg.Game.Rounds == 0 {
		cfg.Game.Rounds = 3
	}
	if cfg.Game.MaxWordLength == 0 {
		cfg.Game.MaxWordLength = 32
	}
	if cfg.Game.PersonalHints == 0 {
		cfg.Game.PersonalHints = 1
	}
	if cfg.Game.PresentationTime == 0 {
		cfg.Game.PresentationTime = 10
	}
	if cfg.Game.VoteTime == 0 {
		cfg.Game.VoteTime = 60
	}
	if cfg.Game.MaxPlayers == 0 {
		cfg.Game.MaxPlayers = 12
	}
	if cfg.Game.RoomTimeout == 0 {
		cfg.Game.RoomTimeout = 10
	}
	if cfg.Theme.Timeout == 0 {
		cfg.Theme.Timeout = 10
	}
}
