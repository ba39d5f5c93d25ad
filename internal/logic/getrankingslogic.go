package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
	"cryptoverde-api/pkg/analysis"
	"cryptoverde-api/pkg/market"
)

type GetRankingsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetRankingsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetRankingsLogic {
	return &GetRankingsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetRankingsLogic) GetRankings(req *types.RankingsRequest) (resp *types.RankingsResponse, err error) {
	metric, ok := analysis.ParseMetric(req.Metric)
	if !ok {
		return nil, badRequest("unknown metric " + req.Metric)
	}

	var coins []market.Coin
	if metric == analysis.MetricVolatility {
		coins = l.svcCtx.Analysis.VolatilityRanking(l.ctx, req.N)
	} else {
		coins = l.svcCtx.Analysis.TopN(l.ctx, metric, req.N)
	}
	if len(coins) == 0 {
		return nil, ErrNoData
	}
	return &types.RankingsResponse{Metric: string(metric), Coins: coins}, nil
}
