package config

import (
	"fmt"
	"strings"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 级别描述，如 "info" 或 "tunnel=debug,info"
	Level string `json:"level,omitempty"`

	// Format text 或 json
	Format string `json:"format,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("log: unsupported format %q", c.Format)
}
