// Package static 实现只读的静态文件服务：固定根目录、路径穿越保护、可选的 404 兜底页。
package static

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"Lantern/internal/serve"
	"Lantern/internal/serve/router"
	"Lantern/modules/kit/errx"
	"Lantern/modules/kit/logx"

	"go.uber.org/zap"
)

// Config 是静态文件服务的配置。
type Config struct {
	// Root 必须存在且是目录。
	Root string
	// FallbackFile 可选；配置时必须存在且不是目录。
	FallbackFile string
}

// Server 在构造时确定规范化后的根目录和兜底文件，之后只读。
type Server struct {
	root     string
	fallback string
	log      logx.Logger
}

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".ico":  "image/vnd.microsoft.icon",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
}

// ContentType 按扩展名查表，查不到返回 ""（不设置 Content-Type）。
func ContentType(name string) string {
	return contentTypes[strings.ToLower(filepath.Ext(name))]
}

// New 校验并规范化 cfg，任一路径非法都返回 errx.ErrConfig。
func New(cfg Config, l logx.Logger) (*Server, error) {
	l = logx.OrNop(l)

	if cfg.Root == "" {
		return nil, errx.ErrConfig.WithData("root", cfg.Root).Wrapf("static root is empty")
	}
	if filepath.IsAbs(cfg.Root) {
		l.Warn("static root is absolute, make sure it is what you want", zap.String("root", cfg.Root))
	}
	root, err := canonical(cfg.Root)
	if err != nil {
		return nil, errx.ErrConfig.WithData("root", cfg.Root).WithCause(err)
	}
	if st, err := os.Stat(root); err != nil {
		return nil, errx.ErrConfig.WithData("root", cfg.Root).WithCause(err)
	} else if !st.IsDir() {
		return nil, errx.ErrConfig.WithData("root", cfg.Root).Wrapf("static root %s is not a directory", root)
	}

	s := &Server{root: root, log: l}
	if cfg.FallbackFile == "" {
		return s, nil
	}

	if filepath.IsAbs(cfg.FallbackFile) {
		l.Warn("static fallback file is absolute, make sure it is what you want",
			zap.String("fallback", cfg.FallbackFile))
	}
	fallback, err := canonical(cfg.FallbackFile)
	if err != nil {
		return nil, errx.ErrConfig.WithData("fallback", cfg.FallbackFile).WithCause(err)
	}
	if st, err := os.Stat(fallback); err != nil {
		return nil, errx.ErrConfig.WithData("fallback", cfg.FallbackFile).WithCause(err)
	} else if st.IsDir() {
		return nil, errx.ErrConfig.WithData("fallback", cfg.FallbackFile).Wrapf("static fallback %s is a directory", fallback)
	}
	s.fallback = fallback
	return s, nil
}

// Root 返回规范化后的根目录。
func (s *Server) Root() string { return s.root }

// Serve 实现 serve.Handler。请求路径已经被上层 Router 剥掉挂载前缀。
func (s *Server) Serve(req *http.Request) (*serve.Response, error) {
	rel := strings.TrimPrefix(req.URL.Path, "/")

	path, ok := s.resolve(rel)
	if !ok {
		return s.notFound(req, rel), nil
	}

	f, size, err := openRegular(path)
	if err != nil {
		s.log.Debug("static open failed", zap.String("path", path), zap.Error(err))
		return s.notFound(req, rel), nil
	}

	resp := serve.File(http.StatusOK, f, size)
	if ct := ContentType(path); ct != "" {
		resp.Header.Set(serve.HeaderContentType, ct)
	}
	return resp, nil
}

// resolve 返回 rel 在根目录下的规范路径；不存在或逃逸出根目录时返回 false。
func (s *Server) resolve(rel string) (string, bool) {
	path, err := canonical(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return "", false
	}
	if !within(s.root, path) {
		return "", false
	}
	return path, true
}

func (s *Server) notFound(req *http.Request, rel string) *serve.Response {
	s.log.Debug("static resource not found",
		zap.String("path", router.OriginalPath(req)),
		zap.String("relative", rel))

	if s.fallback != "" {
		f, size, err := openRegular(s.fallback)
		if err == nil {
			resp := serve.File(http.StatusNotFound, f, size)
			if ct := ContentType(s.fallback); ct != "" {
				resp.Header.Set(serve.HeaderContentType, ct)
			}
			return resp
		}
		s.log.Warn("static fallback open failed", zap.String("fallback", s.fallback), zap.Error(err))
	}
	return serve.NotFound(fmt.Sprintf("Resource not found: %s", rel))
}

// openRegular 打开普通文件并返回大小，目录视为不存在。
func openRegular(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, 0, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return f, st.Size(), nil
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// within 判断 path 是否在 root 之下（按路径分隔符边界比较）。
func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
