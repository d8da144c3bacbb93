package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"Lantern/modules/kit/errx"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader 负责定位配置文件、合并默认值/文件/环境变量/命令行参数并解码成 Config。
//
// 优先级（高到低）：命令行参数 > LANTERN_* 环境变量 > 历史环境变量（PORT 等）> 配置文件 > 默认值。
type Loader struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewLoader 定位配置文件：
// 1) 传入 cfgPath（相对/绝对路径）则必须存在；
// 2) 否则从当前目录开始向上查找 `configs/conf.yml`，找不到只用默认值。
func NewLoader(cfgPath string) (*Loader, error) {
	path, err := resolvePath(cfgPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("LANTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := "LANTERN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, errx.ErrConfig.WithData("key", key).WithCause(err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errx.ErrConfig.WithData("path", path).WithCause(err)
		}
	}
	return &Loader{v: v, path: path}, nil
}

// Path 返回实际加载的配置文件路径，未找到文件时为空。
func (l *Loader) Path() string {
	return l.path
}

// BindFlags 让命令行参数覆盖对应配置项，key 为 "http.port" 形式。nil flag 会被跳过。
func (l *Loader) BindFlags(flags map[string]*pflag.Flag) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, f := range flags {
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return errx.ErrConfig.WithData("key", key).WithCause(err)
		}
	}
	return nil
}

// Load 解码并校验当前配置。
func (l *Loader) Load() (Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decode()
}

func (l *Loader) decode() (Config, error) {
	var c Config
	err := l.v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return Config{}, errx.ErrConfig.WithData("path", l.path).WithCause(err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Watch 监听配置文件变更，每次变更重新解码；解码或校验失败交给 onError，当前配置保持不变。
// 没有配置文件时什么都不做。
func (l *Loader) Watch(onChange func(Config), onError func(error)) {
	if l.path == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.v.OnConfigChange(func(fsnotify.Event) {
		l.mu.Lock()
		c, err := l.decode()
		l.mu.Unlock()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onChange != nil {
			onChange(c)
		}
	})
	l.v.WatchConfig()
}

func resolvePath(cfgPath string) (string, error) {
	if cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return "", errx.ErrConfig.WithData("path", cfgPath).WithCause(err)
		}
		if !fileExist(abs) {
			return "", errx.ErrConfig.WithData("path", abs).Wrapf("config file not exist")
		}
		return abs, nil
	}

	curDir, err := os.Getwd()
	if err != nil {
		return "", errx.ErrConfig.WithCause(err)
	}
	return findConfigUpward(curDir), nil
}

func findConfigUpward(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, defaultConfigRelPath)
		if fileExist(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fileExist(fileName string) bool {
	st, err := os.Stat(fileName)
	return err == nil && !st.IsDir()
}
