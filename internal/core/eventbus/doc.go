// Package eventbus 实现进程内事件总线
//
// 事件按 Go 类型路由：订阅 new(T)，发射 T 或 *T 的值。
// 总线承载两类事件：
//   - interfaces.ConnEvent：连接注册表的 connected/disconnected
//   - types.EvtAttendantDiscovered：房间观察者发现的新在场者
//
// 发射不会阻塞：订阅者缓冲区满时事件被丢弃并计数告警，
// 需要可靠投递的订阅者应当设置足够大的 BufSize。
package eventbus
