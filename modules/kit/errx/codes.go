package errx

// 这里定义 lantern 内统一使用的系统类错误码。
//
// 约束：
// - 配置类错误（CodeConfig）只允许在启动组装阶段出现，出现即拒绝开始服务
// - 请求级的“找不到资源”不走错误，直接合成 404 响应

const (
	// CodeInternal 表示服务内部不可预期错误（兜底）。
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeConfig 表示启动配置非法（静态目录、重复路由、端口等）。
	CodeConfig Code = "CONFIG_ERROR"
	// CodeUnavailable 表示上游不可用（网络异常、非 2xx、响应无法解析）。
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	// CodeTimeout 表示调用方放弃等待。
	CodeTimeout Code = "TIMEOUT"
	// CodeTransport 表示连接级传输失败，连接会被直接断开。
	CodeTransport Code = "TRANSPORT_ERROR"
	// 请求参数错误
	CodeReqParamError Code = "CODE_REQ_PARAM_ERROR"
)

// 统一系统类哨兵错误（允许 WithData/WithCause 派生新对象）。
var (
	ErrInternal    = NewSys(CodeInternal, "服务器内部错误")
	ErrConfig      = NewSys(CodeConfig, "配置非法")
	ErrUnavailable = NewSys(CodeUnavailable, "上游服务不可用")
	ErrTimeout     = NewSys(CodeTimeout, "请求超时")
	ErrTransport   = NewSys(CodeTransport, "连接传输失败")
	ErrReqParamERR = NewBiz(CodeReqParamError, "请求参数错误")
)
