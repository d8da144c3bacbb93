package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Lantern/internal/cache"
	"Lantern/internal/serve"
	"Lantern/internal/serve/router"
	"Lantern/internal/shared/config"
	"Lantern/internal/shared/logs"
	transporthttp "Lantern/internal/shared/transport/http"
	"Lantern/internal/shared/transport/ws"
	"Lantern/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "lantern",
		Short:        "静态站点 + 直播状态接口",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "配置文件路径（默认向上查找 configs/conf.yml）")

	root.AddCommand(newServeCmd(&cfgPath), newRoutesCmd(&cfgPath))
	return root
}

func newServeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, err := newLoader(*cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), loader)
		},
	}
	cmd.Flags().String("host", "", "监听地址")
	cmd.Flags().Int("port", 0, "监听端口")
	cmd.Flags().String("root", "", "静态文件根目录")
	cmd.Flags().String("fallback", "", "404 兜底页")
	return cmd
}

func newRoutesCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "打印路由表",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, err := newLoader(*cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg, newLiveClient(cfg.Live, nil), nil)
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), a.root)
		},
	}
}

func newLoader(cfgPath string, flags *pflag.FlagSet) (*config.Loader, error) {
	loader, err := config.NewLoader(cfgPath)
	if err != nil {
		return nil, err
	}
	err = loader.BindFlags(map[string]*pflag.Flag{
		"http.host":            flags.Lookup("host"),
		"http.port":            flags.Lookup("port"),
		"static.root":          flags.Lookup("root"),
		"static.fallback_file": flags.Lookup("fallback"),
	})
	if err != nil {
		return nil, err
	}
	return loader, nil
}

func runServe(parent context.Context, loader *config.Loader) error {
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err := logs.Init("lantern", cfg.Log); err != nil {
		return err
	}
	defer logs.Sync()
	logs.Info("conf", zap.String("path", loader.Path()), zap.Any("conf", cfg))

	baseLogger := logx.NewZapLogger(logs.Logger())
	loader.Watch(func(c config.Config) {
		logs.SetLevel(c.Log.Level)
		logs.Info("配置文件变更", zap.String("log_level", c.Log.Level))
	}, func(err error) {
		logx.ReportSysError(context.Background(), baseLogger, logx.NewSysLog("config reload", err))
	})

	a, err := buildApp(cfg, newLiveClient(cfg.Live, baseLogger), baseLogger)
	if err != nil {
		logs.Fatal("compose handlers failed", zap.Error(err))
	}
	a.root.Walk(func(route router.Route, h serve.Handler) {
		logs.Info("route", zap.String("route", route.String()), zap.String("handler", fmt.Sprintf("%T", h)))
	})

	if !cfg.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := transporthttp.NewHttpServer(transporthttp.Options{
		Addr:              cfg.HTTP.Addr(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}, baseLogger)
	httpServer.Handle(nethttp.MethodGet, ws.PingPath, ws.NewPingServer(baseLogger))
	httpServer.Mount(a.root)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logs.Info("http server start", zap.String("addr", httpServer.Addr()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http server start failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logs.Info("收到退出信号，准备优雅退出")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if cfg.Cache.CompactInterval > 0 {
		g.Go(func() error {
			cache.RunCompactor(gctx, cfg.Cache.CompactInterval, a.api.Compactors(), func(removed int) {
				logs.Debug("cache compacted", zap.Int("removed", removed))
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logs.Error("服务异常退出", zap.Error(err))
		return err
	}
	logs.Info("服务已退出")
	return nil
}

func shutdownTimeout(cfg config.Config) time.Duration {
	if cfg.HTTP.ShutdownTimeout > 0 {
		return cfg.HTTP.ShutdownTimeout
	}
	return 10 * time.Second
}
