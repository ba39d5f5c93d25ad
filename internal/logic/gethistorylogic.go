package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
	"cryptoverde-api/pkg/market/indicators"
)

type GetHistoryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetHistoryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetHistoryLogic {
	return &GetHistoryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetHistory returns the resampled bars of one coin with their indicator frame.
// Upstream failures surface as no data. Refresh drops the cached series first.
func (l *GetHistoryLogic) GetHistory(req *types.HistoryRequest) (resp *types.HistoryResponse, err error) {
	if req.Refresh {
		l.svcCtx.MarketData.Invalidate(req.ID, req.Days)
	}
	bars, err := l.svcCtx.MarketData.FetchHistorical(l.ctx, req.ID, req.Days)
	if err != nil {
		l.Errorf("logic: history coin=%s days=%d err=%v", req.ID, req.Days, err)
		return nil, ErrNoData
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	frame := indicators.Enrich(bars)
	return &types.HistoryResponse{
		CoinID:     req.ID,
		Days:       req.Days,
		Frame:      frame,
		Trend:      string(frame.Trend),
		TrendColor: frame.Trend.Color(),
	}, nil
}
