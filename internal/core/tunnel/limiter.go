package tunnel

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// inboundLimiter 按房间限制入站 tunnel.connect 频率
//
// limit 为 0 时不限制。
type inboundLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[types.FeedID]*rate.Limiter
}

func newInboundLimiter(perSecond float64, burst int) *inboundLimiter {
	return &inboundLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[types.FeedID]*rate.Limiter),
	}
}

// Allow 是否放行来自 portal 的一次请求
func (l *inboundLimiter) Allow(portal types.FeedID) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[portal]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[portal] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Forget 房间离开后释放其限流器
func (l *inboundLimiter) Forget(portal types.FeedID) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.limiters, portal)
	l.mu.Unlock()
}
