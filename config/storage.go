package config

import (
	"fmt"
	"path/filepath"
)

// StorageConfig 地址库存储配置
//
// 地址库使用 BadgerDB 持久化：
//
//	${DataDir}/
//	└── conn.db/    # BadgerDB 地址库
type StorageConfig struct {
	// DataDir 数据目录
	DataDir string `json:"data_dir"`

	// InMemory 使用内存模式（不落盘，测试/临时节点使用）
	InMemory bool `json:"in_memory,omitempty"`
}

// DefaultStorageConfig 返回默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir: "./data",
	}
}

// Validate 验证存储配置
func (c *StorageConfig) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return fmt.Errorf("storage: data_dir cannot be empty")
	}
	return nil
}

// ConnDBPath 地址库路径
func (c *StorageConfig) ConnDBPath() string {
	return filepath.Join(c.DataDir, "conn.db")
}
