package types

// ============================================================================
//                              房间元数据
// ============================================================================

// 房间特性词汇
const (
	FeatureRoom1      = "room1"
	FeatureRoom2      = "room2"
	FeatureAlias      = "alias"
	FeatureHTTPAuth   = "httpAuth"
	FeatureHTTPInvite = "httpInvite"
)

// RoomMetadata room.metadata() 的返回值
//
// 旧版 tunnel.isRoom() 只返回 true 时，用空 RoomMetadata 表示。
type RoomMetadata struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Membership  bool     `json:"membership,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// IsEmpty 元数据是否不含任何字段
func (m *RoomMetadata) IsEmpty() bool {
	if m == nil {
		return true
	}
	return m.Name == "" && m.Description == "" && !m.Membership && len(m.Features) == 0
}

// HasFeature 是否声明了某个特性
func (m *RoomMetadata) HasFeature(feature string) bool {
	if m == nil {
		return false
	}
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// DetectionKind 房间探测结果来源
type DetectionKind int

const (
	// DetectedModern 通过 room.metadata() 确认
	DetectedModern DetectionKind = iota
	// DetectedLegacy 通过回退的 tunnel.isRoom() 确认
	DetectedLegacy
)

// String 返回来源名称
func (k DetectionKind) String() string {
	switch k {
	case DetectedModern:
		return "modern"
	case DetectedLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// RoomDetection 房间探测结果
type RoomDetection struct {
	Kind     DetectionKind
	Metadata *RoomMetadata
}

// Name 房间名（可能为空）
func (d RoomDetection) Name() string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata.Name
}

// ============================================================================
//                              在场者事件
// ============================================================================

// AttendantsEventType room.attendants() 事件类型
type AttendantsEventType string

const (
	// AttendantsState 完整快照，替换当前集合
	AttendantsState AttendantsEventType = "state"
	// AttendantJoined 新增一个在场者
	AttendantJoined AttendantsEventType = "joined"
	// AttendantLeft 移除一个在场者
	AttendantLeft AttendantsEventType = "left"
)

// AttendantsEvent room.attendants() 流中的事件
type AttendantsEvent struct {
	Type AttendantsEventType `json:"type"`
	IDs  []FeedID            `json:"ids,omitempty"`
	ID   FeedID              `json:"id,omitempty"`
}
