package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
)

type ListCoinsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListCoinsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListCoinsLogic {
	return &ListCoinsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListCoinsLogic) ListCoins() (resp *types.CoinsResponse, err error) {
	coins := l.svcCtx.Analysis.Coins(l.ctx)
	if len(coins) == 0 {
		return nil, ErrNoData
	}
	return &types.CoinsResponse{Coins: coins}, nil
}
