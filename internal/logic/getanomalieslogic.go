package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
	"cryptoverde-api/pkg/analysis"
)

type GetAnomaliesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetAnomaliesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetAnomaliesLogic {
	return &GetAnomaliesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetAnomaliesLogic) GetAnomalies(req *types.AnomaliesRequest) (resp *types.AnomaliesResponse, err error) {
	field, ok := analysis.ParseField(req.Field)
	if !ok {
		return nil, badRequest("unknown metric " + req.Field)
	}
	if req.Threshold <= 0 {
		return nil, badRequest("threshold must be positive")
	}
	return &types.AnomaliesResponse{
		Field:     string(field),
		Threshold: req.Threshold,
		Anomalies: l.svcCtx.Analysis.DetectAnomalies(l.ctx, field, req.Threshold),
	}, nil
}
