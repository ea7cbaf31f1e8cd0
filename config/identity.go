package config

// IdentityConfig 身份配置
type IdentityConfig struct {
	// KeyFile 密钥文件路径，为空时每次启动生成临时身份
	KeyFile string `json:"key_file,omitempty"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{}
}
