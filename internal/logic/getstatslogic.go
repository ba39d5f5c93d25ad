package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
)

type GetStatsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetStatsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetStatsLogic {
	return &GetStatsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetStatsLogic) GetStats() (resp *types.StatsResponse, err error) {
	stats := l.svcCtx.Analysis.MarketStats(l.ctx)
	if stats.TotalCoins == 0 {
		return nil, ErrNoData
	}
	return &types.StatsResponse{MarketStats: stats}, nil
}
