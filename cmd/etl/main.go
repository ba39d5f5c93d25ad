package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/cli"
	"cryptoverde-api/internal/config"
	"cryptoverde-api/internal/svc"
	"cryptoverde-api/pkg/pipeline"
)

func main() {
	var (
		configPath = flag.String("f", "etc/cryptoverde.yaml", "the config file")
		once       = flag.Bool("once", false, "run the pipeline a single time and exit with its status")
	)
	flag.Parse()
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	cli.LogConfigSummary(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcCtx, err := svc.NewServiceContext(ctx, *cfg)
	if err != nil {
		fatalf("build service context: %v", err)
	}

	if *once {
		res := svcCtx.Orchestrator.Run(context.WithoutCancel(ctx), pipeline.TriggerManual)
		if !res.Success {
			fatalf("run %s failed at %s: %v", res.RunID, res.FailedStage, res.Err)
		}
		logx.Infof("etl: run %s loaded=%d skipped=%d", res.RunID, res.Loaded, res.Skipped)
		return
	}

	if err := svcCtx.Scheduler.Start(ctx); err != nil {
		fatalf("start scheduler: %v", err)
	}
	<-ctx.Done()
	logx.Info("etl: received shutdown signal, stopping scheduler")
	if err := svcCtx.Scheduler.Stop(); err != nil {
		logx.Errorf("etl: stop scheduler err=%v", err)
	}
	logx.Info("etl: scheduler stopped")
}

func fatalf(format string, args ...any) {
	logx.Errorf(format, args...)
	os.Exit(1)
}
