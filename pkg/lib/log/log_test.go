package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	Setup(cfg)
	t.Cleanup(func() {
		Setup(Config{})
		Discard()
	})
	return &buf
}

// TestParseLevels 测试级别描述解析
func TestParseLevels(t *testing.T) {
	def, overrides := parseLevels("tunnel=debug, alias=warn,error")
	assert.Equal(t, slog.LevelError, def)
	assert.Equal(t, map[string]slog.Level{
		"tunnel": slog.LevelDebug,
		"alias":  slog.LevelWarn,
	}, overrides)

	def, overrides = parseLevels("")
	assert.Equal(t, slog.LevelInfo, def)
	assert.Empty(t, overrides)

	// 无法识别的级别被忽略
	def, overrides = parseLevels("loud,tunnel=chatty")
	assert.Equal(t, slog.LevelInfo, def)
	assert.Empty(t, overrides)
}

// TestLogger_ComponentLevels 测试组件级别过滤
func TestLogger_ComponentLevels(t *testing.T) {
	buf := capture(t, Config{Level: "tunnel=debug,warn"})

	Logger("tunnel").Debug("确认房间", "room", "r1")
	Logger("tunnel/observer").Debug("订阅在场者")
	Logger("alias").Info("别名已注册")
	Logger("alias").Warn("别名服务响应慢")

	out := buf.String()
	assert.Contains(t, out, "确认房间")
	assert.Contains(t, out, "room=r1")
	assert.Contains(t, out, "component=tunnel/observer")
	assert.NotContains(t, out, "别名已注册")
	assert.Contains(t, out, "别名服务响应慢")

	assert.True(t, Logger("tunnel").Enabled(LevelDebug))
	assert.False(t, Logger("alias").Enabled(LevelInfo))
}

// TestLogger_JSON 测试 JSON 输出
func TestLogger_JSON(t *testing.T) {
	buf := capture(t, Config{Format: "json"})

	Logger("conn").Info("已连接", "addr", "net:a:1")

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "已连接", rec["msg"])
	assert.Equal(t, "conn", rec["component"])
	assert.Equal(t, "net:a:1", rec["addr"])
}

// TestSetLevel 测试运行时调整级别
func TestSetLevel(t *testing.T) {
	buf := capture(t, Config{})

	Logger("tunnel").Debug("隐藏")
	SetLevel("tunnel", LevelDebug)
	Logger("tunnel").Debug("可见")

	assert.NotContains(t, buf.String(), "隐藏")
	assert.Contains(t, buf.String(), "可见")
}

// TestTruncateID 测试截取 ID
func TestTruncateID(t *testing.T) {
	assert.Equal(t, "@abc", TruncateID("@abcdef", 4))
	assert.Equal(t, "@ab", TruncateID("@ab", 8))
}
