package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/config"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/fiber"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/logutil"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

const shutdownTimeout = 10 * time.Second

// options run 命令的参数
type options struct {
	cfg        *config.Config
	configPath string
}

func newOptions() *options {
	return &options{cfg: config.Default()}
}

func (o *options) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "path of the configuration file")
	cmd.Flags().StringVar(&o.cfg.Arbiter.Name, "name", o.cfg.Arbiter.Name, "arbiter name used in logs and metrics")
	cmd.Flags().IntVar(&o.cfg.Pool.MaxWorkers, "max-workers", o.cfg.Pool.MaxWorkers, "maximum number of fibers")
	cmd.Flags().StringVar(&o.cfg.Metrics.Addr, "metrics-addr", o.cfg.Metrics.Addr, "listen address of /metrics, empty to disable")
	cmd.Flags().StringVar(&o.cfg.Log.Level, "log-level", o.cfg.Log.Level, "log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&o.cfg.Log.File, "log-file", o.cfg.Log.File, "log file path")
}

// complete 加载配置文件，命令行显式设置的参数覆盖文件中的值
func (o *options) complete(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	var unknown error
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		switch flag.Name {
		case "config":
		case "name":
			cfg.Arbiter.Name = o.cfg.Arbiter.Name
		case "max-workers":
			cfg.Pool.MaxWorkers = o.cfg.Pool.MaxWorkers
		case "metrics-addr":
			cfg.Metrics.Addr = o.cfg.Metrics.Addr
		case "log-level":
			cfg.Log.Level = o.cfg.Log.Level
		case "log-file":
			cfg.Log.File = o.cfg.Log.File
		default:
			unknown = errors.Errorf("unknown flag %s", flag.Name)
		}
	})
	if unknown != nil {
		return unknown
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// daemon 一次 run 命令创建的全部组件
type daemon struct {
	logger *zap.Logger
	loop   *reactor.Loop
	arb    *actor.Arbiter
	pool   *fiber.Pool
	server *http.Server
}

func (o *options) build() (*daemon, error) {
	logger, err := logutil.InitLogger(&o.cfg.Log)
	if err != nil {
		return nil, err
	}

	loop := reactor.NewLoop(&reactor.LoopConfig{Name: "main", Logger: logger})
	arb := actor.NewArbiter(loop, &actor.ArbiterConfig{
		Name:        o.cfg.Arbiter.Name,
		MailboxSize: o.cfg.Arbiter.MailboxSize,
		Logger:      logger,
	})
	pool := fiber.NewPool(loop, &fiber.Config{
		Name:       o.cfg.Arbiter.Name,
		MaxWorkers: o.cfg.Pool.MaxWorkers,
		Logger:     logger,
	})

	rt := &daemon{logger: logger, loop: loop, arb: arb, pool: pool}
	if o.cfg.Metrics.Addr != "" {
		rt.server = &http.Server{
			Addr:              o.cfg.Metrics.Addr,
			Handler:           metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return rt, nil
}

func metricsHandler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reactor.InitMetrics(registry)
	actor.InitMetrics(registry)
	fiber.InitMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}

// run 运行直到收到 SIGINT/SIGTERM 或某个组件出错
func (rt *daemon) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// 循环只由 shutdown 停止
		return rt.loop.Run(context.Background())
	})
	if rt.server != nil {
		g.Go(func() error {
			rt.logger.Info("serving metrics", zap.String("addr", rt.server.Addr))
			if err := rt.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Annotate(err, "metrics server")
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return rt.shutdown()
	})

	rt.logger.Info("arbiterd started",
		zap.String("version", version),
		zap.Int("max-workers", rt.pool.MaxWorkers()))
	err := g.Wait()
	if err != nil {
		rt.logger.Error("arbiterd exited with error", zap.Error(err))
		return err
	}
	rt.logger.Info("arbiterd exits successfully")
	return nil
}

// shutdown 依次关闭 Fiber 池、Arbiter、循环与 HTTP 服务
func (rt *daemon) shutdown() error {
	rt.logger.Info("arbiterd shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	if _, err := rt.loop.Invoke(ctx, rt.pool.Shutdown); err != nil {
		errs = multierr.Append(errs, errors.Annotate(err, "shutdown fiber pool"))
	}
	if _, err := rt.loop.Invoke(ctx, rt.arb.Close); err != nil {
		errs = multierr.Append(errs, errors.Annotate(err, "close arbiter"))
	}
	if _, err := rt.loop.Invoke(ctx, rt.arb.Done); err != nil {
		errs = multierr.Append(errs, errors.Annotate(err, "wait arbiter"))
	}
	rt.loop.Stop()

	if rt.server != nil {
		if err := rt.server.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, errors.Annotate(err, "shutdown metrics server"))
		}
	}
	_ = rt.logger.Sync()
	return errs
}

func newRunCmd() *cobra.Command {
	o := newOptions()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the arbiter, the fiber pool and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.complete(cmd); err != nil {
				return err
			}
			rt, err := o.build()
			if err != nil {
				return err
			}
			return rt.run(cmd.Context())
		},
	}
	o.addFlags(cmd)
	return cmd
}
