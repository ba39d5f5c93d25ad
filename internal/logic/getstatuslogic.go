package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
)

type GetStatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetStatusLogic {
	return &GetStatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetStatusLogic) GetStatus() (resp *types.StatusResponse, err error) {
	orchestrator := l.svcCtx.Orchestrator
	status := orchestrator.Status()
	resp = &types.StatusResponse{
		Status:  string(status),
		Message: status.Message(),
		State:   orchestrator.State().String(),
	}
	if last, ok := orchestrator.LastResult(); ok {
		summary := runSummary(last)
		resp.LastRun = &summary
	}
	return resp, nil
}
