package config

import (
	"net"
	"strconv"
	"time"
)

type Config struct {
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Static StaticConfig `yaml:"static" mapstructure:"static"`
	Live   LiveConfig   `yaml:"live" mapstructure:"live"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

type HTTPConfig struct {
	Host              string        `yaml:"host" mapstructure:"host"`
	Port              int           `yaml:"port" mapstructure:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Addr 返回 host:port。
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type StaticConfig struct {
	Root         string `yaml:"root" mapstructure:"root"`
	FallbackFile string `yaml:"fallback_file" mapstructure:"fallback_file"` // 为空表示不启用兜底页
}

type LiveConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	ClientID string        `yaml:"client_id" mapstructure:"client_id"`
	Login    string        `yaml:"login" mapstructure:"login"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type CacheConfig struct {
	MaxAge          time.Duration `yaml:"max_age" mapstructure:"max_age"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CompactInterval time.Duration `yaml:"compact_interval" mapstructure:"compact_interval"` // <= 0 关闭定期清理
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}
