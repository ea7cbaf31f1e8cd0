package types

import "strings"

// TunnelScheme 隧道地址协议名
const TunnelScheme = "tunnel"

// ============================================================================
//                              TunnelAddress
// ============================================================================

// TunnelAddress 隧道地址："经由 Portal 到达 Target"
//
// 规范文本格式为 tunnel:<portal>:<target>。
// 隧道地址只用于驱动一次拨号，不会被单独持久化为可拨地址。
type TunnelAddress struct {
	// Portal 作为中继的房间
	Portal FeedID `json:"portal"`

	// Target 目标节点
	Target FeedID `json:"target"`

	// Origin 发起方（入站请求时由房间填写）
	Origin FeedID `json:"origin,omitempty"`
}

// String 返回 tunnel:<portal>:<target>
func (a TunnelAddress) String() string {
	var b strings.Builder
	b.WriteString(TunnelScheme)
	b.WriteByte(':')
	b.WriteString(string(a.Portal))
	b.WriteByte(':')
	b.WriteString(string(a.Target))
	return b.String()
}

// ConnectOpts 转换为远程 tunnel.connect 的参数
func (a TunnelAddress) ConnectOpts() ConnectOpts {
	return ConnectOpts{Target: a.Target, Portal: a.Portal, Origin: a.Origin}
}

// ConnectOpts tunnel.connect 远程调用参数
type ConnectOpts struct {
	Target FeedID `json:"target"`
	Portal FeedID `json:"portal"`
	Origin FeedID `json:"origin,omitempty"`
}
