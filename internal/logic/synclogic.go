package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
	"cryptoverde-api/pkg/pipeline"
)

type SyncLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSyncLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SyncLogic {
	return &SyncLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Sync runs the pipeline on demand. The run outlives a disconnecting client.
func (l *SyncLogic) Sync() (resp *types.SyncResponse, err error) {
	res := l.svcCtx.Orchestrator.Run(context.WithoutCancel(l.ctx), pipeline.TriggerManual)
	if !res.Success {
		l.Errorf("logic: sync run_id=%s outcome=%s stage=%s err=%v", res.RunID, res.Outcome, res.FailedStage, res.Err)
		return nil, ErrSyncFailed
	}
	return &types.SyncResponse{
		Success: true,
		Message: pipeline.StatusOK.Message(),
		Run:     runSummary(res),
		Stats:   res.Stats,
	}, nil
}
