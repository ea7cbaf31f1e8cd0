// Package types 定义 go-roomclient 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go     - FeedID 身份标识
//   - tunnel.go  - TunnelAddress、ConnectOpts
//   - room.go    - RoomMetadata、AttendantsEvent、RoomDetection
//   - peer.go    - PeerData（连接注册表中地址/连接/暂存记录的数据）
//   - events.go  - 事件总线上的事件
//   - errors.go  - 公共错误定义
package types
