package cache

import (
	"context"
	"time"
)

// Compactor 是可以被周期性清理过期条目的存储。
type Compactor interface {
	Compact() int
}

// RunCompactor 每隔 interval 对 targets 执行一次 Compact，直到 ctx 结束。
// interval <= 0 时直接返回（默认不做后台清理）。onSweep 可为 nil。
//
// 阻塞调用，由调用方决定放在哪个 goroutine 里跑。
func RunCompactor(ctx context.Context, interval time.Duration, targets []Compactor, onSweep func(removed int)) {
	if interval <= 0 || len(targets) == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, t := range targets {
				removed += t.Compact()
			}
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
