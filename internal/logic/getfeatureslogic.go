package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
	"cryptoverde-api/pkg/features"
	"cryptoverde-api/pkg/market"
)

type GetFeaturesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetFeaturesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetFeaturesLogic {
	return &GetFeaturesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetFeatures builds the feature vector of a stored coin. Missing history only
// degrades the vector to its fallbacks.
func (l *GetFeaturesLogic) GetFeatures(req *types.FeaturesRequest) (resp *types.FeaturesResponse, err error) {
	coin, ok := l.findCoin(req.ID)
	if !ok {
		return nil, ErrNoData
	}

	var closes, volumes []float64
	bars, err := l.svcCtx.MarketData.FetchHistorical(l.ctx, req.ID, req.Days)
	if err != nil {
		l.Errorf("logic: features history coin=%s days=%d err=%v", req.ID, req.Days, err)
	} else {
		closes, volumes = market.Closes(bars), market.Volumes(bars)
	}

	return &types.FeaturesResponse{
		CoinID:   coin.ID,
		Days:     req.Days,
		Features: features.BuildVector(coin, closes, volumes),
	}, nil
}

func (l *GetFeaturesLogic) findCoin(id string) (market.Coin, bool) {
	for _, c := range l.svcCtx.Analysis.Coins(l.ctx) {
		if c.ID == id {
			return c, true
		}
	}
	return market.Coin{}, false
}
