// Package serve 定义请求处理能力的最小抽象，以及把它接到 net/http 上的适配器。
//
// Handler 只有一个能力：给定请求，产出响应或致命的传输错误。
// 路由、静态文件、业务接口都实现 Handler，组合方式只有“把一个 Handler 挂到另一个下面”。
//
// Handler 的实现按指针共享：同一个 Handler 值被所有连接 goroutine 复用，
// 其捕获的状态（例如缓存）对每个使用方都可见，不做深拷贝。
package serve

import "net/http"

// Handler 处理一次请求。
//
// 返回非 nil error 表示致命的传输失败：连接会被直接断开，不再写响应。
// 业务上的失败（404、400、502 等）应当以 *Response 表达，而不是 error。
type Handler interface {
	Serve(req *http.Request) (*Response, error)
}

// HandlerFunc 让普通函数实现 Handler。
type HandlerFunc func(req *http.Request) (*Response, error)

func (f HandlerFunc) Serve(req *http.Request) (*Response, error) {
	return f(req)
}
