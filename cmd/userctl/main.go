// userctl 开发者社区用户管理命令行
//
// 用法:
//
//	userctl [--config path] <command> [flags]
//
// 配置按 config/config.yaml → 环境变量（DEVCOMMUNITY_*）的顺序覆盖，
// 当前目录下的.env文件会先被加载到环境变量中。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/xiebiao/devcommunity/internal/infrastructure/config"
	"github.com/xiebiao/devcommunity/pkg/logger"
	"github.com/xiebiao/devcommunity/pkg/metrics"
	"github.com/xiebiao/devcommunity/pkg/tracing"
)

func main() {
	_ = godotenv.Load() // .env不存在时忽略

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run 解析全局参数、初始化依赖并执行子命令
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet("userctl", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.SetInterspersed(false) // 子命令之后的参数交给子命令解析
	configPath := fs.StringP("config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(errOut)
		} else {
			fmt.Fprintln(errOut, err)
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		printUsage(errOut)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(errOut, "加载配置失败: %v\n", err)
		return exitError
	}

	log, closer, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		fmt.Fprintf(errOut, "初始化日志失败: %v\n", err)
		return exitError
	}
	if closer != nil {
		defer closer.Close()
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(ctx, tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    true,
		})
		if err != nil {
			log.WithError(err).Warn("初始化链路追踪失败，继续运行")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.WithError(err).Warn("关闭链路追踪失败")
				}
			}()
		}
	}

	app, cleanup, err := InitializeApp(ctx, cfg, log)
	if err != nil {
		logger.WithError(log, err).Error("初始化失败")
		fmt.Fprintf(errOut, "初始化失败: %v\n", err)
		return exitError
	}
	defer cleanup()

	code := app.Run(ctx, fs.Args(), out, errOut)

	// 命令行进程生命周期很短，指标推送到Pushgateway而不是等待抓取
	if err := metrics.Push(cfg.Metrics.PushURL, cfg.Metrics.Job); err != nil {
		log.WithError(err).Warn("推送指标失败")
	}
	return code
}
