// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockRPC: 模拟 interfaces.RPC，未设置的方法默认表现为"远端未开放"
//   - MockSource: 模拟 interfaces.Source，测试中推送事件或结束流
//   - MockRegistry: 模拟 interfaces.ConnRegistry，内存中的地址库、连接表和暂存区
//   - MockEmitter: 记录发射的事件
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
//
// # 使用示例
//
//	rpc := mocks.NewMockRPC(roomID)
//	rpc.RoomMetadataFunc = func(ctx context.Context) (*types.RoomMetadata, error) {
//	    return &types.RoomMetadata{Name: "garden"}, nil
//	}
//	reg := mocks.NewMockRegistry()
//	reg.Emit(interfaces.ConnEvent{Type: interfaces.ConnEventConnected, Key: roomID, RPC: rpc})
package mocks
