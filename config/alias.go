package config

import (
	"fmt"
	"time"
)

// AliasConfig 别名子系统配置
//
// 等待房间出现使用指数退避：从 BackoffInitial 开始，每次翻倍，
// 下一次等待超过 BackoffMax 时放弃。
type AliasConfig struct {
	// HTTPTimeout 解析 http(s) 别名 URI 的请求超时
	HTTPTimeout Duration `json:"http_timeout"`

	// BackoffInitial 首次等待
	BackoffInitial Duration `json:"backoff_initial"`

	// BackoffMax 等待上限
	BackoffMax Duration `json:"backoff_max"`

	// RememberAliases 成功消费别名后是否记住中继地址
	RememberAliases bool `json:"remember_aliases"`
}

// DefaultAliasConfig 返回默认别名配置
func DefaultAliasConfig() AliasConfig {
	return AliasConfig{
		HTTPTimeout:     Duration(10 * time.Second),
		BackoffInitial:  Duration(32 * time.Millisecond),
		BackoffMax:      Duration(8 * time.Second),
		RememberAliases: true,
	}
}

// Validate 验证别名配置
func (c *AliasConfig) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("alias: http_timeout must be positive")
	}
	if c.BackoffInitial <= 0 {
		return fmt.Errorf("alias: backoff_initial must be positive")
	}
	if c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("alias: backoff_max (%s) must be >= backoff_initial (%s)", c.BackoffMax, c.BackoffInitial)
	}
	return nil
}
