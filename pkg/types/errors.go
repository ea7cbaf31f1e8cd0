package types

import "errors"

var (
	// ErrInvalidFeedID 无效的身份
	ErrInvalidFeedID = errors.New("invalid feed id")

	// ErrInvalidTunnelAddress 无效的隧道地址
	ErrInvalidTunnelAddress = errors.New("invalid tunnel address")
)
