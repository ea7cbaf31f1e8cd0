// Package tunnel 实现经由房间（中继服务器）的隧道传输
//
// # 组件
//
//   - 地址编解码（address.go）：tunnel:<portal>:<target> 与派生的中继子地址
//   - 错误流（errconn.go）：失败时仍需返回双工流的场合使用
//   - 房间观察者（observer.go）：每个已确认房间一个，跟踪在场者并暂存候选地址
//   - 传输（transport.go）：监听连接事件、探测房间、维护房间表、执行出站拨号
//   - 入站服务（service.go）：响应房间转发来的 tunnel.connect 请求
//
// # 并发模型
//
// 房间表只在 Transport 的事件循环中写入；探测结果通过消息回到事件循环。
// 每个观察者在自己的 goroutine 中消费订阅流，在场者集合只在该 goroutine 中修改。
package tunnel

import "github.com/dep2p/go-roomclient/pkg/lib/log"

var logger = log.Logger("tunnel")
