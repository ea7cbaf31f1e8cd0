package msaddr

import "strings"

// OpenInviteSeed 开放房间邀请的固定种子
const OpenInviteSeed = "SSB+Room+PSK3TLYC2T86EHQCUHBUHASCASE18JBV24="

// IsOpenRoomInvite 是否为开放房间邀请：<房间地址>:<种子>
func IsOpenRoomInvite(invite string) bool {
	if invite == "" || !strings.HasSuffix(invite, ":"+OpenInviteSeed) {
		return false
	}
	addr, _, _ := strings.Cut(invite, ":"+OpenInviteSeed)
	return addr != "" && IsAddress(addr)
}

// AddressToOpenRoomInvite 由房间地址生成开放邀请
func AddressToOpenRoomInvite(addr string) string {
	return addr + ":" + OpenInviteSeed
}

// OpenRoomInviteToAddress 从开放邀请中取出房间地址
func OpenRoomInviteToAddress(invite string) (string, bool) {
	if !IsOpenRoomInvite(invite) {
		return "", false
	}
	addr, _, _ := strings.Cut(invite, ":"+OpenInviteSeed)
	return addr, true
}
