package words

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPThemeProvider 调用外部生成服务获取主题词
// POST endpoint {"theme": "...", "count": N} → {"words": [...]}
type HTTPThemeProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPThemeProvider 创建主题词客户端
func NewHTTPThemeProvider(endpoint string, timeout time.Duration) *HTTPThemeProvider {
	return &HTTPThemeProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type themeRequest struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

type themeResponse struct {
	Words []string `json:"words"`
}

// ThemeWords 按主题生成候选词
// 返回数量不足请求数一半时视为失败，由调用方降级到静态词库
func (p *HTTPThemeProvider) ThemeWords(ctx context.Context, theme string, count int) ([]string, error) {
	body, err := json.Marshal(themeRequest{Theme: theme, Count: count})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("主题词请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("主题词服务返回 %d", resp.StatusCode)
	}

	var parsed themeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("主题词响应解析失败: %w", err)
	}

	// 去重并清理
	seen := make(map[string]bool, len(parsed.Words))
	out := make([]string, 0, len(parsed.Words))
	for _, w := range parsed.Words {
		w = Sanitize(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}

	if len(out)*2 < count {
		return nil, fmt.Errorf("主题词数量不足: 请求 %d，实际 %d", count, len(out))
	}
	return out, nil
}
