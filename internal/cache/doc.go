// Package cache 提供进程内的两类缓存原语，用于挡住慢的或有状态的上游调用。
//
//   - TTLStore：按 key 存值，带默认 TTL 与单次写入覆盖。并发未命中不合并，
//     每个调用方各自回源、各自写入（后写者胜），只适合幂等且便宜的上游。
//     过期条目不会被 Get 删除，需要调用方显式 Compact，或启用 RunCompactor。
//   - Refresher / SyncRefresher：包装一个无参 producer 和固定 maxAge，
//     在锁内检查新鲜度并在锁内回源，保证同一时刻至多一次回源；回源失败不缓存。
//   - KeyedRefresher：Refresher 的按 key 扩展，每个 key 同一时刻至多一个回源。
//
// 所有类型都不依赖路由层，也没有全局实例，由组装代码显式构造后按指针传递。
package cache
