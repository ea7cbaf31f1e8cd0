// Package alias 实现房间别名
//
// 别名是用户在房间注册的可读名字，通过对注册声明的签名与用户身份绑定：
//
//	=room-alias-registration:<room>:<user>:<alias>
//
// 本包提供：
//
//   - 注册声明的构造、签名与验证（registration.go）
//   - 在房间注册/撤销别名
//   - 消费别名：验证签名、连接房间、等待房间被确认、经由房间连接别名所有者
//   - 从 http(s) 或 ssb:experimental URI 解析别名
package alias

import "github.com/dep2p/go-roomclient/pkg/lib/log"

var logger = log.Logger("alias")
