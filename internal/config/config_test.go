package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2037, cfg.Server.Port)
	assert.Equal(t, 80, cfg.Game.DrawTime)
	assert.Equal(t, 3, cfg.Game.WordChoices)
	assert.Equal(t, 60, cfg.Game.VoteTime)
	assert.Equal(t, 12, cfg.Game.MaxPlayers)
}

func TestLoad(t *testing.T) {
	content := `
server:
  host: 127.0.0.1
  port: 9000
game:
  draw_time: 120
  rounds: 5
theme:
  endpoint: http://localhost:8080/themes
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o644)
	assert.NoError(t, err)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Game.DrawTime)
	assert.Equal(t, 5, cfg.Game.Rounds)
	assert.Equal(t, "http://localhost:8080/themes", cfg.Theme.Endpoint)

	// Unset fields fall back to defaults
	assert.Equal(t, 15, cfg.Game.WordChoiceTime)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	assert.Error(t, err)
}
