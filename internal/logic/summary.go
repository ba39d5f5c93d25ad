package logic

import (
	"cryptoverde-api/internal/types"
	"cryptoverde-api/pkg/pipeline"
)

func runSummary(res pipeline.Result) types.RunSummary {
	return types.RunSummary{
		RunID:      res.RunID,
		Trigger:    string(res.Trigger),
		Success:    res.Success,
		Outcome:    string(res.Outcome),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Fetched:    res.Fetched,
		Loaded:     res.Loaded,
		Skipped:    res.Skipped,
	}
}
