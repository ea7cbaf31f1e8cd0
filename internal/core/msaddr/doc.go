// Package msaddr 处理多服务器地址（multiserver address）语法
//
// 多服务器地址由 ';' 分隔的若干地址组成，每个地址由 '~' 分隔的
// 传输段与变换段组成，每段形如 name:arg1:arg2，例如：
//
//	net:room.example.com:8008~shs:<base64 公钥>
//	tunnel:@room.ed25519:@bob.ed25519~shs:<bob 公钥>
//
// 本包只做语法校验与字段提取，不负责拨号。
package msaddr
