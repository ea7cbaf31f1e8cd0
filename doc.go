// Package roomclient 提供经由房间（中继服务器）连接节点的客户端
//
// 位于 NAT 或防火墙之后的节点可以通过房间互相到达。Client 负责：
//
//   - 在已连接的节点中识别房间，并跟踪每个房间的在场者
//   - 把 tunnel:<房间>:<目标> 地址解析为经由房间中继的双向流
//   - 接收经由房间转发来的入站连接
//   - 注册、撤销、消费带签名的别名
//
// # 快速开始
//
//	client, err := roomclient.New(
//	    roomclient.WithDataDir("./data"),
//	    roomclient.WithDialer(dialer),
//	    roomclient.WithTunnelUpgrader(upgrade),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.Start(ctx); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// 经由房间连接别名所有者
//	rpc, err := client.ConsumeAliasURI(ctx, "https://alice.room.example")
//
//	// 经由房间拨号
//	conn, err := client.Dial(ctx, "tunnel:@room...ed25519:@alice...ed25519")
//
// # 模块组装
//
// 内部模块通过 Fx 组装：
//
//	identity → eventbus → conn（或 WithRegistry 注入的注册表）→ tunnel → alias
package roomclient
