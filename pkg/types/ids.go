package types

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// ============================================================================
//                              FeedID - 节点身份
// ============================================================================

// FeedID 节点的密码学身份
//
// 规范文本格式：
//
//	@<base64(32 字节 ed25519 公钥)>.ed25519
//
// FeedID 之间只做精确比较，不同节点不会共享同一个 FeedID。
type FeedID string

// feedIDPattern 身份语法
var feedIDPattern = regexp.MustCompile(`^@[A-Za-z0-9/+]{43}=\.(?:sha256|ed25519)$`)

const (
	// FeedPrefix 身份前缀（1 字节）
	FeedPrefix = "@"

	// FeedSuffix 身份后缀（8 字节）
	FeedSuffix = ".ed25519"
)

// IsFeed 检查字符串是否为合法身份
func IsFeed(s string) bool {
	return feedIDPattern.MatchString(s)
}

// NewFeedID 由原始公钥构造 FeedID
func NewFeedID(pub []byte) FeedID {
	return FeedID(FeedPrefix + base64.StdEncoding.EncodeToString(pub) + FeedSuffix)
}

// ParseFeedID 解析并校验身份字符串
func ParseFeedID(s string) (FeedID, error) {
	if !IsFeed(s) {
		return "", ErrInvalidFeedID
	}
	return FeedID(s), nil
}

// String 返回规范文本
func (id FeedID) String() string {
	return string(id)
}

// ShortString 返回日志用短标识
func (id FeedID) ShortString() string {
	s := strings.TrimPrefix(string(id), FeedPrefix)
	if len(s) > 8 {
		return FeedPrefix + s[:8]
	}
	return string(id)
}

// Valid 是否为合法身份
func (id FeedID) Valid() bool {
	return IsFeed(string(id))
}

// IsEmpty 是否为空
func (id FeedID) IsEmpty() bool {
	return id == ""
}

// Key 返回去掉 1 字节前缀与 8 字节后缀后的编码公钥
//
// 这是中继子地址中 shs 段使用的密钥。对不满足长度的值返回空串。
func (id FeedID) Key() string {
	s := string(id)
	if len(s) <= len(FeedPrefix)+len(FeedSuffix) {
		return ""
	}
	return s[len(FeedPrefix) : len(s)-len(FeedSuffix)]
}

// PublicKey 解码 ed25519 公钥字节
func (id FeedID) PublicKey() ([]byte, error) {
	if !strings.HasSuffix(string(id), FeedSuffix) || !id.Valid() {
		return nil, ErrInvalidFeedID
	}
	pub, err := base64.StdEncoding.DecodeString(id.Key())
	if err != nil {
		return nil, ErrInvalidFeedID
	}
	return pub, nil
}
