//go:build !production

package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockRecorder 排行榜写入 mock
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordGameResult(ctx context.Context, playerID, playerName string, score int, won bool) error {
	args := m.Called(ctx, playerID, playerName, score, won)
	return args.Error(0)
}

// MemoryRecorder 记录每次写入，不做断言（用于生命周期测试）
type MemoryRecorder struct {
	mu      sync.Mutex
	Results []RecordedResult
}

type RecordedResult struct {
	PlayerID   string
	PlayerName string
	Score      int
	Won        bool
}

func (m *MemoryRecorder) RecordGameResult(_ context.Context, playerID, playerName string, score int, won bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results = append(m.Results, RecordedResult{
		PlayerID:   playerID,
		PlayerName: playerName,
		Score:      score,
		Won:        won,
	})
	return nil
}

// Recorded 返回已记录结果的副本（写入发生在后台协程）
func (m *MemoryRecorder) Recorded() []RecordedResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedResult, len(m.Results))
	copy(out, m.Results)
	return out
}
