package types

import "time"

// EvtAttendantDiscovered 发现一个可经由房间到达的在场者
//
// 连接调度器可以订阅该事件决定是否连接。
type EvtAttendantDiscovered struct {
	// Address 派生的中继子地址
	Address  string
	Key      FeedID
	Room     FeedID
	RoomName string
	At       time.Time
}
