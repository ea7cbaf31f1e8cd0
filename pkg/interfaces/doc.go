// Package interfaces 定义 go-roomclient 的公共接口
//
// 本包只包含接口与少量值类型，用于解耦：
//   - rpc.go      - 与远端节点的 RPC 会话（房间能力、隧道连接、别名注册）
//   - conn.go     - 连接注册表协作方（地址库、活动连接、暂存区）
//   - eventbus.go - 进程内事件总线
package interfaces
