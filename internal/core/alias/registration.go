package alias

import (
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// RegistrationPrefix 注册声明前缀
const RegistrationPrefix = "=room-alias-registration"

// Registration 一条别名注册声明
type Registration struct {
	Room  types.FeedID
	User  types.FeedID
	Alias string
}

// Payload 返回签名内容
func (r Registration) Payload() string {
	return RegistrationPrefix + ":" + string(r.Room) + ":" + string(r.User) + ":" + r.Alias
}

// Verify 用 User 的公钥验证签名，签名可以使用 URL 安全的 base64 字母表
func (r Registration) Verify(signature string) bool {
	sig := identity.NormalizeSignature(signature)
	return identity.Verify(r.User, sig, []byte(r.Payload()))
}

// RegistrationPayload 构造签名内容
func RegistrationPayload(room, user types.FeedID, alias string) string {
	return Registration{Room: room, User: user, Alias: alias}.Payload()
}

// SignRegistration 用本地密钥对签名在 room 注册 alias 的声明
func SignRegistration(kp *identity.Keypair, room types.FeedID, alias string) string {
	r := Registration{Room: room, User: kp.ID(), Alias: alias}
	return kp.Sign([]byte(r.Payload()))
}

// VerifyRegistration 验证签名
func VerifyRegistration(room, user types.FeedID, alias, signature string) bool {
	return Registration{Room: room, User: user, Alias: alias}.Verify(signature)
}
