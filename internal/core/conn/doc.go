// Package conn 提供连接注册表的参考实现
//
// Registry 维护三张表：
//
//   - 地址库（DB）：BadgerDB 持久化，记录已知地址及其元数据
//   - 连接表（Hub）：当前已建立会话的地址
//   - 暂存区（Staging）：已发现、等待连接调度器决定是否连接的地址
//
// 实际拨号由注入的 Dialer 完成，连接建立与断开作为 pkgif.ConnEvent
// 发布到事件总线，隧道传输通过 Listen 订阅。
//
//	db, _ := conn.OpenBadgerDB(conn.DBOptions{InMemory: true})
//	reg := conn.NewRegistry(db, dialer, bus)
//	defer reg.Close()
package conn

import "github.com/dep2p/go-roomclient/pkg/lib/log"

var logger = log.Logger("conn")
