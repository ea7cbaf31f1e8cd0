package config

import "fmt"

// TunnelConfig 隧道传输配置
type TunnelConfig struct {
	// InboundRateLimit 每个房间每秒允许的入站 tunnel.connect 请求数
	// 0 表示不限制
	InboundRateLimit float64 `json:"inbound_rate_limit,omitempty"`

	// InboundBurst 入站请求突发上限
	InboundBurst int `json:"inbound_burst,omitempty"`

	// EventBuffer 连接事件订阅缓冲区
	EventBuffer int `json:"event_buffer,omitempty"`
}

// DefaultTunnelConfig 返回默认隧道配置
func DefaultTunnelConfig() TunnelConfig {
	return TunnelConfig{
		InboundRateLimit: 0,
		InboundBurst:     8,
		EventBuffer:      256,
	}
}

// Validate 验证隧道配置
func (c *TunnelConfig) Validate() error {
	if c.InboundRateLimit < 0 {
		return fmt.Errorf("tunnel: inbound_rate_limit cannot be negative")
	}
	if c.InboundRateLimit > 0 && c.InboundBurst <= 0 {
		return fmt.Errorf("tunnel: inbound_burst must be positive when rate limit is set")
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("tunnel: event_buffer cannot be negative")
	}
	return nil
}
