package serve

import (
	"errors"
	"io"
	"net/http"

	"Lantern/modules/kit/errx"
	"Lantern/modules/kit/logx"

	"go.uber.org/zap"
)

// httpHandler 把 Handler 适配为 http.Handler。
type httpHandler struct {
	h   Handler
	log logx.Logger
}

// HTTPHandler 返回驱动 h 的 http.Handler：
//   - h 返回 error：记录系统错误，并以 http.ErrAbortHandler 中止，net/http 直接断开连接；
//   - 否则写出状态码、头和流式 Body。
func HTTPHandler(h Handler, l logx.Logger) http.Handler {
	return &httpHandler{h: h, log: logx.OrNop(l)}
}

func (a *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := a.h.Serve(r)
	if err != nil {
		logx.ReportSysError(r.Context(), a.log, logx.NewSysLog("serve request",
			errx.ErrTransport.WithData("path", r.URL.Path).WithCause(err)))
		panic(http.ErrAbortHandler)
	}
	if resp == nil {
		resp = NewResponse(http.StatusNoContent, nil)
	}

	if err := Write(w, resp); err != nil {
		a.log.WithContext(r.Context()).Warn("write response body failed",
			zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// Write 把 resp 写到 w 并关闭 Body。
//
// resp 没有 Content-Type 时，显式阻止 net/http 按内容嗅探补上默认类型。
func Write(w http.ResponseWriter, resp *Response) error {
	header := w.Header()
	for k, vs := range resp.Header {
		header[k] = append([]string(nil), vs...)
	}
	if _, ok := resp.Header[HeaderContentType]; !ok {
		header[HeaderContentType] = nil
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if resp.Body == nil {
		return nil
	}
	_, copyErr := io.Copy(w, resp.Body)
	closeErr := resp.Body.Close()
	return errors.Join(copyErr, closeErr)
}
