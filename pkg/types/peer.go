package types

// ============================================================================
//                              PeerData
// ============================================================================

// 注册表记录类型
const (
	PeerTypeRoom          = "room"
	PeerTypeRoomAttendant = "room-attendant"
	PeerTypeRoomEndpoint  = "room-endpoint"
)

// PeerData 连接注册表中一条地址记录的数据
//
// 同一结构用于持久化地址库、活动连接表和暂存区。
type PeerData struct {
	Type        string `json:"type,omitempty"`
	Key         FeedID `json:"key,omitempty"`
	Room        FeedID `json:"room,omitempty"`
	RoomName    string `json:"roomName,omitempty"`
	RoomAddress string `json:"roomAddress,omitempty"`
	Alias       string `json:"alias,omitempty"`
	Autoconnect bool   `json:"autoconnect,omitempty"`

	// 房间元数据
	Name               string `json:"name,omitempty"`
	Membership         bool   `json:"membership,omitempty"`
	OpenInvites        bool   `json:"openInvites,omitempty"`
	SupportsRoom2      bool   `json:"supportsRoom2,omitempty"`
	SupportsAliases    bool   `json:"supportsAliases,omitempty"`
	SupportsHTTPAuth   bool   `json:"supportsHttpAuth,omitempty"`
	SupportsHTTPInvite bool   `json:"supportsHttpInvite,omitempty"`
	OnlineCount        int    `json:"onlineCount,omitempty"`
}

// Patch 对 PeerData 的局部修改
type Patch func(*PeerData)

// Apply 依次应用修改
func (d *PeerData) Apply(patches ...Patch) {
	for _, p := range patches {
		if p != nil {
			p(d)
		}
	}
}

// PeerEntry 地址与数据
type PeerEntry struct {
	Address string
	Data    PeerData
}
