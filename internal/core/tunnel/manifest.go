package tunnel

import (
	"fmt"
	"sort"
)

// ============================================================================
//                              方法清单
// ============================================================================

// MethodType 远程方法类型
type MethodType string

const (
	MethodAsync  MethodType = "async"
	MethodSync   MethodType = "sync"
	MethodSource MethodType = "source"
	MethodDuplex MethodType = "duplex"
)

// Manifest 方法名到方法类型的映射
type Manifest map[string]MethodType

// Has 是否声明了方法
func (m Manifest) Has(method string) bool {
	_, ok := m[method]
	return ok
}

// Methods 返回排序后的方法名
func (m Manifest) Methods() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TunnelManifest tunnel 命名空间
var TunnelManifest = Manifest{
	"announce":  MethodSync,
	"leave":     MethodSync,
	"isRoom":    MethodAsync,
	"connect":   MethodDuplex,
	"endpoints": MethodSource,
	"ping":      MethodSync,
}

// RoomManifest room 命名空间（由房间实现，客户端调用）
var RoomManifest = Manifest{
	"registerAlias": MethodAsync,
	"revokeAlias":   MethodAsync,
	"metadata":      MethodAsync,
	"attendants":    MethodSource,
}

// Permissions 未认证调用方可用的方法
type Permissions struct {
	Anonymous struct {
		Allow []string `json:"allow"`
	} `json:"anonymous"`
}

// TunnelPermissions 本地 tunnel 服务对匿名调用方开放 connect 与 ping
func TunnelPermissions() Permissions {
	var p Permissions
	p.Anonymous.Allow = []string{"connect", "ping"}
	return p
}

// Allows 是否允许匿名调用方调用方法
func (p Permissions) Allows(method string) bool {
	for _, m := range p.Anonymous.Allow {
		if m == method {
			return true
		}
	}
	return false
}

// CheckMethod 方法不在清单中时返回满足 IsMethodMissing 的错误
func CheckMethod(namespace string, m Manifest, method string) error {
	if m.Has(method) {
		return nil
	}
	return fmt.Errorf("method:%s.%s is %w", namespace, method, ErrMethodNotAllowed)
}
