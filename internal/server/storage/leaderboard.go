package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/sketch-party/internal/protocol"
)

const (
	// Redis key
	playerStatsKey = "player:stats:"
	leaderboardKey = "leaderboard:score"
)

// Leaderboard 排行榜：玩家统计存 JSON，总分榜用有序集合
type Leaderboard struct {
	redis *redis.Client
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client}
}

// GetPlayerStats 获取玩家统计，没有记录时返回 nil
func (lb *Leaderboard) GetPlayerStats(ctx context.Context, playerID string) (*protocol.PlayerStats, error) {
	key := playerStatsKey + playerID
	data, err := lb.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats protocol.PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (lb *Leaderboard) SavePlayerStats(ctx context.Context, stats *protocol.PlayerStats) error {
	key := playerStatsKey + stats.PlayerID
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lb.redis.Set(ctx, key, data, 0).Err()
}

// getOrCreateStats 获取或创建玩家统计
func (lb *Leaderboard) getOrCreateStats(ctx context.Context, playerID, playerName string) (*protocol.PlayerStats, error) {
	stats, err := lb.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &protocol.PlayerStats{
			PlayerID:   playerID,
			PlayerName: playerName,
			CreatedAt:  time.Now().Unix(),
		}
	}
	return stats, nil
}

// RecordGameResult 记录一局结果并刷新总分榜
func (lb *Leaderboard) RecordGameResult(ctx context.Context, playerID, playerName string, score int, won bool) error {
	stats, err := lb.getOrCreateStats(ctx, playerID, playerName)
	if err != nil {
		return err
	}

	stats.PlayerName = playerName
	stats.TotalGames++
	stats.TotalScore += score
	if score > stats.BestScore {
		stats.BestScore = score
	}
	if won {
		stats.Wins++
	}
	stats.LastPlayed = time.Now().Unix()

	if err := lb.SavePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lb.redis.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(stats.TotalScore),
		Member: stats.PlayerID,
	}).Err()
}

// GetLeaderboard 按累计得分从高到低取一页
func (lb *Leaderboard) GetLeaderboard(ctx context.Context, offset, limit int) ([]protocol.LeaderboardEntry, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	results, err := lb.redis.ZRevRangeWithScores(ctx, leaderboardKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]protocol.LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lb.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		entries = append(entries, protocol.LeaderboardEntry{
			Rank:       offset + i + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			TotalScore: int(result.Score),
			Wins:       stats.Wins,
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜返回 -1
func (lb *Leaderboard) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
