package errx

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Is_只按code比较语义(t *testing.T) {
	e1 := ErrConfig.WithData("route", "/api").WithCause(errors.New("duplicate"))
	e2 := ErrConfig.WithData("root", "build")
	if !errors.Is(e1, e2) {
		t.Fatalf("期望 errors.Is(e1, e2)==true（只按 code 判断语义），e1=%v e2=%v", e1, e2)
	}
	if errors.Is(e1, ErrUnavailable) {
		t.Fatalf("不同 code 不应判定为相同语义，e1=%v", e1)
	}
}

func TestError_业务错误不捕获栈_但保留cause链(t *testing.T) {
	cause := errors.New("bad login")
	err := ErrReqParamERR.WithCause(cause)
	if got := err.Stack(); got != nil {
		t.Fatalf("期望业务错误不捕获栈，got=%v", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("期望 cause 链不丢，err=%v", err)
	}
}

func TestError_系统错误捕获一次栈_且不重复捕获(t *testing.T) {
	sys := ErrUnavailable.Wrapf("dial %s: %w", "gql", errors.New("connection refused"))
	if got := sys.Stack(); len(got) == 0 {
		t.Fatalf("期望系统错误捕获栈，got=%v", got)
	}

	outer := ErrInternal.WithCause(sys)
	if got := outer.Stack(); got != nil {
		t.Fatalf("期望上层系统错误不重复捕获栈，got=%v", got)
	}
}

func TestError_Data_防止外部map污染(t *testing.T) {
	m := map[string]any{"path": "/a"}
	err := ErrConfig.WithDataMap(m)
	m["path"] = "mutated"
	if got := err.Data()["path"]; got != "/a" {
		t.Fatalf("期望构造时复制 data，got=%v", got)
	}
	if ErrConfig.Data() != nil {
		t.Fatalf("派生不应修改哨兵错误，got=%v", ErrConfig.Data())
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", ErrUnavailable.WithCause(errors.New("eof")))
	if got := CodeOf(wrapped); got != CodeUnavailable {
		t.Fatalf("CodeOf 应穿透 fmt 包装，got=%q", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Fatalf("非 errx 错误应归为 CodeInternal，got=%q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("nil 错误应返回空 code，got=%q", got)
	}
}
