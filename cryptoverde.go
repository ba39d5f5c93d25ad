// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"

	"cryptoverde-api/internal/cli"
	"cryptoverde-api/internal/config"
	"cryptoverde-api/internal/handler"
	"cryptoverde-api/internal/svc"
)

var configFile = flag.String("f", "etc/cryptoverde.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()
	logx.DisableStat()
	cli.LogConfigSummary(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svcCtx := svc.MustNewServiceContext(ctx, *cfg)
	handler.RegisterHandlers(server, svcCtx)

	if err := svcCtx.Scheduler.Start(ctx); err != nil {
		logx.Errorf("scheduler: start err=%v", err)
	}
	defer func() {
		if err := svcCtx.Scheduler.Stop(); err != nil {
			logx.Errorf("scheduler: stop err=%v", err)
		}
	}()

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
