package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/dep2p/go-roomclient/internal/core/alias"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/internal/core/tunnel"
	"github.com/dep2p/go-roomclient/pkg/types"
)

func expectArgs(fs *flag.FlagSet, n int, usage string) error {
	if fs.NArg() != n {
		return fmt.Errorf("usage: roomclient %s", usage)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseTunnel 解析并规范化隧道地址
func parseTunnel(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("parse-tunnel", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(fs, 1, "parse-tunnel <tunnel地址>"); err != nil {
		return err
	}

	addr, err := tunnel.Parse(fs.Arg(0))
	if err != nil {
		return err
	}
	return writeJSON(out, struct {
		types.TunnelAddress
		Canonical string `json:"canonical"`
	}{addr, addr.String()})
}

// relayAddress 输出经由房间到达目标的可拨地址
func relayAddress(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("relay-address", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(fs, 2, "relay-address <房间ID> <目标ID>"); err != nil {
		return err
	}

	addr, err := tunnel.ParseOpts(types.TunnelAddress{
		Portal: types.FeedID(fs.Arg(0)),
		Target: types.FeedID(fs.Arg(1)),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tunnel.DeriveRelayAddress(addr.Portal, addr.Target))
	return err
}

// signAlias 用本地密钥签名别名注册声明
func signAlias(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sign-alias", flag.ContinueOnError)
	fs.SetOutput(out)
	keyFile := fs.String("key", "", "密钥文件路径（不存在时创建）")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(fs, 2, "sign-alias -key <密钥文件> <房间ID> <别名>"); err != nil {
		return err
	}
	if *keyFile == "" {
		return fmt.Errorf("-key is required")
	}

	room := types.FeedID(fs.Arg(0))
	if !room.Valid() {
		return &alias.ValidationError{Field: "room", Value: fs.Arg(0)}
	}
	kp, err := identity.LoadOrCreateKeyFile(*keyFile)
	if err != nil {
		return err
	}
	name := fs.Arg(1)
	return writeJSON(out, map[string]string{
		"roomId":    string(room),
		"userId":    string(kp.ID()),
		"alias":     name,
		"payload":   alias.RegistrationPayload(room, kp.ID(), name),
		"signature": alias.SignRegistration(kp, room, name),
	})
}

// verifyAlias 校验别名注册签名
func verifyAlias(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify-alias", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(fs, 4, "verify-alias <房间ID> <用户ID> <别名> <签名>"); err != nil {
		return err
	}

	if !alias.VerifyRegistration(types.FeedID(fs.Arg(0)), types.FeedID(fs.Arg(1)), fs.Arg(2), fs.Arg(3)) {
		return alias.ErrBadSignature
	}
	_, err := fmt.Fprintln(out, "ok")
	return err
}

// parseAliasURI 离线解析 ssb:experimental 别名 URI 并校验签名
func parseAliasURI(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("parse-alias-uri", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(fs, 1, "parse-alias-uri <ssb URI>"); err != nil {
		return err
	}

	opts, err := alias.ParseSSBURI(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if !opts.Registration().Verify(opts.Signature) {
		return alias.ErrBadSignature
	}
	return writeJSON(out, opts)
}
