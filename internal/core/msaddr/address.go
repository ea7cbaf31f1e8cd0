package msaddr

import (
	"regexp"
	"strings"

	"github.com/dep2p/go-roomclient/pkg/types"
)

var protocolName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Part 地址中的一段
type Part struct {
	Name string
	Args []string
}

// String 返回 name:arg1:arg2
func (p Part) String() string {
	return strings.Join(append([]string{p.Name}, p.Args...), ":")
}

// Address 单个地址（传输段 + 变换段）
type Address []Part

// String 返回 '~' 连接的文本
func (a Address) String() string {
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.String()
	}
	return strings.Join(parts, "~")
}

// Find 查找指定名称的段
func (a Address) Find(name string) (Part, bool) {
	for _, p := range a {
		if p.Name == name {
			return p, true
		}
	}
	return Part{}, false
}

// Parse 解析多服务器地址
//
// 返回 nil 表示语法不合法。
func Parse(s string) []Address {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []Address
	for _, raw := range strings.Split(s, ";") {
		addr := parseAddress(raw)
		if addr == nil {
			return nil
		}
		out = append(out, addr)
	}
	return out
}

func parseAddress(s string) Address {
	if s == "" {
		return nil
	}
	var addr Address
	for _, seg := range strings.Split(s, "~") {
		fields := strings.Split(seg, ":")
		if !protocolName.MatchString(fields[0]) {
			return nil
		}
		for _, arg := range fields[1:] {
			if arg == "" {
				return nil
			}
		}
		addr = append(addr, Part{Name: fields[0], Args: fields[1:]})
	}
	// 至少传输段要带参数
	if len(addr[0].Args) == 0 {
		return nil
	}
	return addr
}

// IsAddress 是否为合法的多服务器地址
func IsAddress(s string) bool {
	return Parse(s) != nil
}

// KeyFromAddress 从地址的 shs 段提取对端身份
func KeyFromAddress(s string) (types.FeedID, bool) {
	for _, addr := range Parse(s) {
		shs, ok := addr.Find("shs")
		if !ok || len(shs.Args) == 0 {
			continue
		}
		id := types.FeedID(types.FeedPrefix + shs.Args[0] + types.FeedSuffix)
		if id.Valid() {
			return id, true
		}
	}
	return "", false
}
