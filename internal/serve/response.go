package serve

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
)

const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"

	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"
)

// Response 是 Handler 的产出。Body 为流式读取，由写出方负责 Close，可为 nil。
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// NewResponse 创建响应，Header 总是非 nil。
func NewResponse(status int, body io.ReadCloser) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// BytesBody 把内存中的字节包装成可流式读取的 Body。
func BytesBody(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

// Text 返回纯文本响应。
func Text(status int, s string) *Response {
	resp := NewResponse(status, BytesBody([]byte(s)))
	resp.Header.Set(HeaderContentType, ContentTypeText)
	resp.Header.Set(HeaderContentLength, strconv.Itoa(len(s)))
	return resp
}

// JSON 序列化 v 并返回 JSON 响应。
func JSON(status int, v any) (*Response, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	resp := NewResponse(status, BytesBody(raw))
	resp.Header.Set(HeaderContentType, ContentTypeJSON)
	resp.Header.Set(HeaderContentLength, strconv.Itoa(len(raw)))
	return resp, nil
}

// File 以已打开的文件作为 Body，文件在写出结束后关闭。
// size < 0 时不设置 Content-Length。
func File(status int, f *os.File, size int64) *Response {
	resp := NewResponse(status, f)
	if size >= 0 {
		resp.Header.Set(HeaderContentLength, strconv.FormatInt(size, 10))
	}
	return resp
}

// NotFound 是路由与静态文件共用的 404 纯文本响应。
func NotFound(body string) *Response {
	return Text(http.StatusNotFound, body)
}
