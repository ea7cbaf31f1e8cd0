// Package main 提供 roomclient 命令行工具
//
// 离线处理隧道地址与别名：
//
//	roomclient parse-tunnel tunnel:@room.ed25519:@alice.ed25519
//	roomclient relay-address @room.ed25519 @alice.ed25519
//	roomclient sign-alias -key ./secret @room.ed25519 alice
//	roomclient verify-alias @room.ed25519 @alice.ed25519 alice <签名>
//	roomclient parse-alias-uri 'ssb:experimental?action=consume-alias&...'
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dep2p/go-roomclient/pkg/lib/log"
)

var logger = log.Logger("roomclient/cmd")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// command 子命令
type command struct {
	name  string
	usage string
	run   func(args []string, out io.Writer) error
}

var commands = []command{
	{"parse-tunnel", "parse-tunnel <tunnel地址>", parseTunnel},
	{"relay-address", "relay-address <房间ID> <目标ID>", relayAddress},
	{"sign-alias", "sign-alias -key <密钥文件> <房间ID> <别名>", signAlias},
	{"verify-alias", "verify-alias <房间ID> <用户ID> <别名> <签名>", verifyAlias},
	{"parse-alias-uri", "parse-alias-uri <ssb URI>", parseAliasURI},
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printHelp(out)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			logger.Debug("执行命令", "command", c.name)
			return c.run(args[1:], out)
		}
	}
	printHelp(out)
	return fmt.Errorf("unknown command %q", args[0])
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "用法: roomclient <命令> [参数]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "命令:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %s\n", c.usage)
	}
}
