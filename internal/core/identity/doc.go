// Package identity 提供节点身份与签名
//
// 身份采用 ed25519 密钥对，文本形式为 @<base64 公钥>.ed25519。
// 签名文本形式为 <base64 签名>.sig.ed25519。
//
// 本包只做签名/验证这类不透明的密码学调用，以及密钥文件的持久化。
package identity
