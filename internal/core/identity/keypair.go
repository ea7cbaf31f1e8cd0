package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// SignatureSuffix 签名文本后缀
const SignatureSuffix = ".sig.ed25519"

// 错误定义
var (
	// ErrInvalidKeySize 无效的密钥大小
	ErrInvalidKeySize = errors.New("identity: invalid key size")
	// ErrInvalidSignature 无效的签名
	ErrInvalidSignature = errors.New("identity: invalid signature")
)

// ============================================================================
//                              Keypair
// ============================================================================

// Keypair 本地节点的 ed25519 密钥对
type Keypair struct {
	priv ed25519.PrivateKey
	id   types.FeedID
}

// GenerateKeypair 生成新的随机密钥对
func GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newKeypair(priv), nil
}

// KeypairFromSeed 由 32 字节种子派生密钥对
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeySize
	}
	return newKeypair(ed25519.NewKeyFromSeed(seed)), nil
}

// KeypairFromPrivateKey 由 64 字节私钥构造密钥对
func KeypairFromPrivateKey(priv []byte) (*Keypair, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeySize
	}
	return newKeypair(ed25519.PrivateKey(priv)), nil
}

func newKeypair(priv ed25519.PrivateKey) *Keypair {
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{priv: priv, id: types.NewFeedID(pub)}
}

// ID 返回身份
func (k *Keypair) ID() types.FeedID {
	return k.id
}

// PublicKey 返回公钥
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// Sign 对消息签名，返回 <base64>.sig.ed25519
func (k *Keypair) Sign(msg []byte) string {
	sig := ed25519.Sign(k.priv, msg)
	return base64.StdEncoding.EncodeToString(sig) + SignatureSuffix
}

// ============================================================================
//                              验证
// ============================================================================

// Verify 用 id 中的公钥验证签名
//
// sig 可以带或不带 .sig.ed25519 后缀。任何解析失败都视为验证失败。
func Verify(id types.FeedID, sig string, msg []byte) bool {
	pub, err := id.PublicKey()
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	raw, err := DecodeSignature(sig)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, raw)
}

// DecodeSignature 解析签名文本
func DecodeSignature(sig string) ([]byte, error) {
	sig = strings.TrimSuffix(sig, SignatureSuffix)
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if len(raw) != ed25519.SignatureSize {
		return nil, ErrInvalidSignature
	}
	return raw, nil
}

// NormalizeSignature 把 base64url 字符还原为标准 base64
//
// 通过 URI 传递的签名常使用 URL 安全字母表。
func NormalizeSignature(sig string) string {
	return strings.NewReplacer("_", "/", "-", "+").Replace(sig)
}
