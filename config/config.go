// Package config 提供 go-roomclient 的统一配置
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载和保存。
//
//	cfg := config.NewConfig()
//	cfg.Alias.HTTPTimeout = config.Duration(5 * time.Second)
//
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"fmt"
)

// Config 完整配置
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity"`

	// Tunnel 隧道传输配置
	Tunnel TunnelConfig `json:"tunnel"`

	// Alias 别名子系统配置
	Alias AliasConfig `json:"alias"`

	// Storage 地址库存储配置
	Storage StorageConfig `json:"storage"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 返回默认配置
func NewConfig() *Config {
	return &Config{
		Identity: DefaultIdentityConfig(),
		Tunnel:   DefaultTunnelConfig(),
		Alias:    DefaultAliasConfig(),
		Storage:  DefaultStorageConfig(),
		Log:      DefaultLogConfig(),
	}
}

// FromJSON 从 JSON 加载配置，未出现的字段保持默认值
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse json: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Validate 验证整个配置
func (c *Config) Validate() error {
	if err := c.Tunnel.Validate(); err != nil {
		return err
	}
	if err := c.Alias.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
