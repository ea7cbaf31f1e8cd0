package alias

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Schedule 返回等待房间时的退避序列
//
// 从 initial 开始每次翻倍，下一次等待超过 limit 时结束。
// 默认参数下为 32ms, 64ms, ..., 4096ms。
func Schedule(initial, limit time.Duration) []time.Duration {
	if initial <= 0 {
		return nil
	}
	var waits []time.Duration
	for d := initial; d <= limit; d *= 2 {
		waits = append(waits, d)
	}
	return waits
}

// poll 先检查一次 ready，然后按 waits 依次等待并检查
//
// 返回 ready 是否最终为真；ctx 结束时返回 ctx.Err()。
func poll(ctx context.Context, clk clock.Clock, waits []time.Duration, ready func() bool) (bool, error) {
	if ready() {
		return true, nil
	}
	for _, d := range waits {
		t := clk.Timer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return false, ctx.Err()
		case <-t.C:
		}
		if ready() {
			return true, nil
		}
	}
	return false, nil
}
