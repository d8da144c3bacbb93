package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"Lantern/modules/kit/errx"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `http:
  port: 9000
static:
  root: public
  fallback_file: ""
cache:
  max_age: 30s
  compact_interval: 1m
log:
  level: warn
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, defaultConfigRelPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func load(t *testing.T, cfgPath string) Config {
	t.Helper()
	l, err := NewLoader(cfgPath)
	require.NoError(t, err)
	c, err := l.Load()
	require.NoError(t, err)
	return c
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	l, err := NewLoader("")
	require.NoError(t, err)
	require.Empty(t, l.Path())

	c, err := l.Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", c.HTTP.Addr())
	require.Equal(t, "build", c.Static.Root)
	require.Equal(t, "build/404.html", c.Static.FallbackFile)
	require.Equal(t, "https://gql.twitch.tv/gql", c.Live.Endpoint)
	require.Equal(t, "alts_alt_", c.Live.Login)
	require.Equal(t, 10*time.Second, c.Cache.MaxAge)
	require.Equal(t, 10*time.Second, c.Cache.TTL)
	require.Zero(t, c.Cache.CompactInterval)
	require.Equal(t, 10*time.Second, c.HTTP.ShutdownTimeout)
	require.Equal(t, "info", c.Log.Level)
}

func TestLoad_FileSearchedUpward(t *testing.T) {
	base := t.TempDir()
	writeConfig(t, base, sampleYAML)
	nested := filepath.Join(base, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	c := load(t, "")
	require.Equal(t, 9000, c.HTTP.Port)
	require.Equal(t, "public", c.Static.Root)
	require.Empty(t, c.Static.FallbackFile)
	require.Equal(t, 30*time.Second, c.Cache.MaxAge)
	require.Equal(t, time.Minute, c.Cache.CompactInterval)
	require.Equal(t, "warn", c.Log.Level)
	require.Equal(t, "0.0.0.0", c.HTTP.Host, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sampleYAML)
	t.Setenv("PORT", "9200")
	t.Setenv("STATIC_SERVER_ROOT", "dist")
	t.Setenv("STATIC_SERVER_FALLBACK_FILE", "dist/404.html")
	t.Setenv("LANTERN_CACHE_TTL", "45s")

	c := load(t, path)
	require.Equal(t, 9200, c.HTTP.Port)
	require.Equal(t, "dist", c.Static.Root)
	require.Equal(t, "dist/404.html", c.Static.FallbackFile)
	require.Equal(t, 45*time.Second, c.Cache.TTL)
}

func TestLoad_PrefixedEnvBeatsAlias(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9200")
	t.Setenv("LANTERN_HTTP_PORT", "9300")

	require.Equal(t, 9300, load(t, "").HTTP.Port)
}

func TestLoad_FlagsBeatEverything(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sampleYAML)
	t.Setenv("PORT", "9200")

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.Int("port", 0, "")
	fs.String("root", "", "")
	require.NoError(t, fs.Parse([]string{"--port=7000"}))

	l, err := NewLoader(path)
	require.NoError(t, err)
	require.NoError(t, l.BindFlags(map[string]*pflag.Flag{
		"http.port":   fs.Lookup("port"),
		"static.root": fs.Lookup("root"),
		"missing":     nil,
	}))

	c, err := l.Load()
	require.NoError(t, err)
	require.Equal(t, 7000, c.HTTP.Port)
	require.Equal(t, "public", c.Static.Root, "unchanged flag must not override the file")
}

func TestNewLoader_ExplicitPathMustExist(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yml"))
	require.ErrorIs(t, err, errx.ErrConfig)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"port":     "http:\n  port: 70000\n",
		"level":    "log:\n  level: loud\n",
		"duration": "cache:\n  max_age: soon\n",
		"root":     "static:\n  root: \"\"\n",
		"endpoint": "live:\n  endpoint: not-a-url\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), content)
			l, err := NewLoader(path)
			require.NoError(t, err)
			_, err = l.Load()
			require.ErrorIs(t, err, errx.ErrConfig)
		})
	}
}

func TestLoader_WatchReloads(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "log:\n  level: info\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		last string
	)
	l.Watch(func(c Config) {
		mu.Lock()
		last = c.Log.Level
		mu.Unlock()
	}, nil)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last == "debug"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestLoader_WatchWithoutFileIsNoop(t *testing.T) {
	t.Chdir(t.TempDir())
	l, err := NewLoader("")
	require.NoError(t, err)
	l.Watch(func(Config) { t.Error("unexpected reload") }, nil)
}
