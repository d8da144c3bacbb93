package router

import (
	"strings"

	"Lantern/modules/kit/errx"
)

// Route 是有序的路径段序列，注册后作为不可变的分发 key。
// 空 Route 匹配所有路径。
type Route []string

// ParseRoute 按 "/" 切分，丢弃所有空段："/api//ping/" -> [api ping]。
func ParseRoute(s string) Route {
	return Route(splitPath(s))
}

// String 返回 "/a/b" 形式，空 Route 为 "/"。
func (r Route) String() string {
	return "/" + strings.Join(r, "/")
}

func (r Route) key() string {
	return strings.Join(r, "/")
}

func (r Route) validate() error {
	for i, seg := range r {
		if seg == "" || strings.Contains(seg, "/") {
			return errx.ErrConfig.
				WithData("route", r.String()).
				WithData("segment_index", i).
				Wrapf("invalid route segment %q", seg)
		}
	}
	return nil
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
