package tunnel

import (
	"fmt"
	"strings"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// ============================================================================
//                              地址编解码
// ============================================================================

// Parse 解析 tunnel:<portal>:<target>
//
// 允许带 ~shs:<key> 之类的变换段后缀，解析时忽略。
func Parse(s string) (types.TunnelAddress, error) {
	if i := strings.IndexByte(s, '~'); i >= 0 {
		s = s[:i]
	}
	fields := strings.Split(s, ":")
	if len(fields) != 3 || fields[0] != types.TunnelScheme {
		return types.TunnelAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return ParseOpts(types.TunnelAddress{
		Portal: types.FeedID(fields[1]),
		Target: types.FeedID(fields[2]),
	})
}

// ParseOpts 校验已构造好的隧道地址
func ParseOpts(addr types.TunnelAddress) (types.TunnelAddress, error) {
	if !addr.Portal.Valid() {
		return types.TunnelAddress{}, fmt.Errorf("%w: bad portal %q", ErrInvalidAddress, addr.Portal)
	}
	if !addr.Target.Valid() {
		return types.TunnelAddress{}, fmt.Errorf("%w: bad target %q", ErrInvalidAddress, addr.Target)
	}
	if addr.Origin != "" && !addr.Origin.Valid() {
		return types.TunnelAddress{}, fmt.Errorf("%w: bad origin %q", ErrInvalidAddress, addr.Origin)
	}
	return addr, nil
}

// DeriveRelayAddress 派生连接注册表实际拨号的中继子地址
//
//	tunnel:<portal>:<target>~shs:<key>
//
// key 为 target 去掉 1 字节前缀和 8 字节后缀后的编码公钥。
func DeriveRelayAddress(portal, target types.FeedID) string {
	return fmt.Sprintf("%s:%s:%s~shs:%s", types.TunnelScheme, portal, target, target.Key())
}

// Stringify 隧道地址不会作为独立可拨地址持久化
//
// 调用方应当使用 DeriveRelayAddress。
func Stringify(types.TunnelAddress) (string, bool) {
	return "", false
}
