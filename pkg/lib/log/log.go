// Package log 提供 go-roomclient 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，按组件（子系统）区分日志。
// 组件日志级别可以通过环境变量配置：
//
//	# 所有组件 info，tunnel 组件 debug
//	ROOMCLIENT_LOG_LEVEL=tunnel=debug,info
//
//	# 使用 JSON 输出
//	ROOMCLIENT_LOG_FORMAT=json
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// 环境变量名
const (
	EnvLogLevel  = "ROOMCLIENT_LOG_LEVEL"
	EnvLogFormat = "ROOMCLIENT_LOG_FORMAT"
)

var (
	mu sync.RWMutex

	// base 所有组件共享的 handler
	base slog.Handler

	// levels 组件级别覆盖
	levels = map[string]slog.Level{}

	// defaultLevel 未覆盖组件的级别
	defaultLevel = slog.LevelInfo
)

// ============================================================================
//                              配置
// ============================================================================

// Config 日志配置
type Config struct {
	// Level 级别描述，格式同 ROOMCLIENT_LOG_LEVEL
	Level string

	// Format 输出格式：text 或 json
	Format string

	// Output 输出目标，nil 表示 stderr
	Output io.Writer
}

// ConfigFromEnv 从环境变量读取日志配置
func ConfigFromEnv() Config {
	return Config{
		Level:  os.Getenv(EnvLogLevel),
		Format: os.Getenv(EnvLogFormat),
	}
}

// Setup 应用日志配置
//
// 可以重复调用，已创建的 LazyLogger 会立即使用新配置。
func Setup(cfg Config) {
	def, overrides := parseLevels(cfg.Level)

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	mu.Lock()
	base = h
	defaultLevel = def
	levels = overrides
	mu.Unlock()
}

// SetOutput 设置日志输出目标，保留当前级别
func SetOutput(w io.Writer) {
	mu.Lock()
	base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	mu.Unlock()
}

// SetLevel 设置组件日志级别，component 为空时设置默认级别
func SetLevel(component string, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	if component == "" {
		defaultLevel = level
		return
	}
	levels[component] = level
}

// Discard 关闭所有日志输出
//
// 主要用于测试，避免日志干扰测试输出。
func Discard() {
	mu.Lock()
	base = slog.NewTextHandler(io.Discard, nil)
	mu.Unlock()
}

// parseLevels 解析 "tunnel=debug,alias=warn,info"
func parseLevels(s string) (slog.Level, map[string]slog.Level) {
	def := slog.LevelInfo
	overrides := make(map[string]slog.Level)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, lvl, found := strings.Cut(part, "=")
		if !found {
			if l, ok := parseLevel(name); ok {
				def = l
			}
			continue
		}
		if l, ok := parseLevel(lvl); ok {
			overrides[strings.TrimSpace(name)] = l
		}
	}
	return def, overrides
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}

func levelFor(component string) slog.Level {
	if l, ok := levels[component]; ok {
		return l
	}
	// 支持前缀匹配：tunnel=debug 同时作用于 tunnel/observer
	if i := strings.IndexByte(component, '/'); i > 0 {
		if l, ok := levels[component[:i]]; ok {
			return l
		}
	}
	return defaultLevel
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时读取当前的 handler 与级别，
// 支持在运行时动态切换日志输出目标。
//
//	var logger = log.Logger("tunnel")
//	logger.Info("确认房间", "room", id)
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	mu.RLock()
	h := base
	enabled := level >= levelFor(l.component)
	mu.RUnlock()
	if !enabled {
		return
	}
	slog.New(h).With("component", l.component).Log(ctx, level, msg, args...)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// Enabled 组件是否启用指定级别
func (l *LazyLogger) Enabled(level slog.Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return level >= levelFor(l.component)
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

func init() {
	Setup(ConfigFromEnv())
}
