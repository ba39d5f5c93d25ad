// Package pipeline runs Extract, Transform, Load and Summarize as one unit and
// schedules that unit on a fixed interval.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/pkg/analysis"
	"cryptoverde-api/pkg/market"
)

// State is the orchestrator's position in a run.
type State int32

const (
	StateIdle State = iota
	StateExtracting
	StateTransforming
	StateLoading
	StateSummarizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateTransforming:
		return "transforming"
	case StateLoading:
		return "loading"
	case StateSummarizing:
		return "summarizing"
	default:
		return "unknown"
	}
}

// Stage names a pipeline step for logs and metrics.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
	StageSummarize Stage = "summarize"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeExtractFailed Outcome = "extract_failed"
	OutcomeNoRecords     Outcome = "no_records"
	OutcomeLoadFailed    Outcome = "load_failed"
)

// Trigger tells scheduled runs from on-demand ones.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// ErrNoValidRecords is returned when transformation leaves nothing to load.
var ErrNoValidRecords = market.NewError(market.ErrDataValidation, "pipeline: transform", "", errors.New("no valid records"))

// Result reports one run.
type Result struct {
	RunID       string                `json:"run_id"`
	Trigger     Trigger               `json:"trigger"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	Success     bool                  `json:"success"`
	Outcome     Outcome               `json:"outcome"`
	FailedStage Stage                 `json:"failed_stage,omitempty"`
	Err         error                 `json:"-"`
	Error       string                `json:"error,omitempty"`
	Fetched     int                   `json:"fetched"`
	Loaded      int                   `json:"loaded"`
	Skipped     int                   `json:"skipped"`
	Stats       *analysis.MarketStats `json:"stats,omitempty"`
}

// Duration is the wall time of the run.
func (r Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Extractor fetches the raw snapshot.
type Extractor interface {
	FetchSnapshot(ctx context.Context) ([]market.RawRecord, error)
}

// Transformer turns raw records into valid coins and a skipped count.
type Transformer interface {
	Transform(ctx context.Context, raw []market.RawRecord) ([]market.Coin, int)
}

// Loader persists a batch of coins atomically.
type Loader interface {
	Upsert(ctx context.Context, coins []market.Coin) error
}

// Summarizer computes the post-run statistics.
type Summarizer interface {
	MarketStats(ctx context.Context) analysis.MarketStats
}

// Observer receives stage timings and run outcomes.
type Observer interface {
	StageFinished(stage Stage, d time.Duration, err error)
	RunFinished(trigger Trigger, outcome Outcome, d time.Duration)
	RecordsSkipped(n int)
}

type nopObserver struct{}

func (nopObserver) StageFinished(Stage, time.Duration, error)   {}
func (nopObserver) RunFinished(Trigger, Outcome, time.Duration) {}
func (nopObserver) RecordsSkipped(int)                          {}

// Orchestrator executes runs one at a time. Scheduled and on-demand callers
// share the same instance.
type Orchestrator struct {
	extract   Extractor
	transform Transformer
	load      Loader
	summarize Summarizer
	observer  Observer
	now       func() time.Time

	runMu sync.Mutex
	state atomic.Int32

	statusMu      sync.RWMutex
	last          *Result
	lastSuccess   time.Time
	lastManualErr time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithObserver installs an instrumentation observer.
func WithObserver(o Observer) OrchestratorOption {
	return func(orc *Orchestrator) {
		if o != nil {
			orc.observer = o
		}
	}
}

// WithSummarizer enables the summarize stage.
func WithSummarizer(s Summarizer) OrchestratorOption {
	return func(orc *Orchestrator) { orc.summarize = s }
}

// WithClock injects the clock used to stamp results.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(orc *Orchestrator) {
		if now != nil {
			orc.now = now
		}
	}
}

// NewOrchestrator wires the stages.
func NewOrchestrator(extract Extractor, transform Transformer, load Loader, opts ...OrchestratorOption) *Orchestrator {
	orc := &Orchestrator{
		extract:   extract,
		transform: transform,
		load:      load,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(orc)
	}
	return orc
}

// State reports the current stage of the in-flight run, or StateIdle.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

func (o *Orchestrator) enter(s State) { o.state.Store(int32(s)) }

// Run executes one pipeline run. A failing stage stops the run; nothing is
// written unless Load commits. Only one run executes at a time.
func (o *Orchestrator) Run(ctx context.Context, trigger Trigger) Result {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	defer o.enter(StateIdle)

	res := Result{RunID: uuid.NewString(), Trigger: trigger, StartedAt: o.now()}
	ctx = logx.ContextWithFields(ctx, logx.Field("run_id", res.RunID))
	logx.WithContext(ctx).Infof("pipeline: run started trigger=%s", trigger)

	o.execute(ctx, &res)

	res.FinishedAt = o.now()
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	o.observer.RunFinished(trigger, res.Outcome, res.Duration())
	o.record(res)
	if res.Success {
		logx.WithContext(ctx).Infof("pipeline: run finished trigger=%s loaded=%d skipped=%d duration=%s",
			trigger, res.Loaded, res.Skipped, res.Duration())
	} else {
		logx.WithContext(ctx).Errorf("pipeline: run failed trigger=%s stage=%s outcome=%s err=%v",
			trigger, res.FailedStage, res.Outcome, res.Err)
	}
	return res
}

func (o *Orchestrator) execute(ctx context.Context, res *Result) {
	o.enter(StateExtracting)
	started := time.Now()
	raw, err := o.extract.FetchSnapshot(ctx)
	o.observer.StageFinished(StageExtract, time.Since(started), err)
	if err != nil {
		o.fail(res, StageExtract, OutcomeExtractFailed, err)
		return
	}
	res.Fetched = len(raw)

	o.enter(StateTransforming)
	started = time.Now()
	coins, skipped := o.transform.Transform(ctx, raw)
	res.Skipped = skipped
	o.observer.RecordsSkipped(skipped)
	if len(coins) == 0 {
		o.observer.StageFinished(StageTransform, time.Since(started), ErrNoValidRecords)
		o.fail(res, StageTransform, OutcomeNoRecords, ErrNoValidRecords)
		return
	}
	o.observer.StageFinished(StageTransform, time.Since(started), nil)

	o.enter(StateLoading)
	started = time.Now()
	err = o.load.Upsert(ctx, coins)
	o.observer.StageFinished(StageLoad, time.Since(started), err)
	if err != nil {
		o.fail(res, StageLoad, OutcomeLoadFailed, err)
		return
	}
	res.Loaded = len(coins)
	res.Success = true
	res.Outcome = OutcomeSuccess

	if o.summarize == nil {
		return
	}
	o.enter(StateSummarizing)
	started = time.Now()
	stats := o.summarize.MarketStats(ctx)
	o.observer.StageFinished(StageSummarize, time.Since(started), nil)
	res.Stats = &stats
	logx.WithContext(ctx).Infof("pipeline: summary coins=%d total_market_cap=%.0f gainers=%d losers=%d",
		stats.TotalCoins, stats.TotalMarketCap, stats.TotalGainers, stats.TotalLosers)
}

func (o *Orchestrator) fail(res *Result, stage Stage, outcome Outcome, err error) {
	res.Success = false
	res.FailedStage = stage
	res.Outcome = outcome
	res.Err = err
}

func (o *Orchestrator) record(res Result) {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	o.last = &res
	switch {
	case res.Success:
		o.lastSuccess = res.FinishedAt
	case res.Trigger == TriggerManual:
		o.lastManualErr = res.FinishedAt
	}
}

// Status is what the presentation layer may show about sync health.
type Status string

const (
	StatusNoData     Status = "no_data"
	StatusSyncFailed Status = "sync_failed"
	StatusOK         Status = "ok"
)

// Message is the user-facing text for the status.
func (s Status) Message() string {
	switch s {
	case StatusNoData:
		return "No data available yet"
	case StatusSyncFailed:
		return "Sync failed"
	default:
		return "OK"
	}
}

// Status reports NoData until a run succeeds, SyncFailed while the latest
// on-demand run failed after the last success, and OK otherwise.
func (o *Orchestrator) Status() Status {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	switch {
	case o.lastSuccess.IsZero():
		return StatusNoData
	case o.lastManualErr.After(o.lastSuccess):
		return StatusSyncFailed
	default:
		return StatusOK
	}
}

// LastResult returns the most recent run result, if any.
func (o *Orchestrator) LastResult() (Result, bool) {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	if o.last == nil {
		return Result{}, false
	}
	return *o.last, true
}
