package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spinefetch/internal/atlas"
	"spinefetch/internal/ledger"
	"spinefetch/internal/logging"
	"spinefetch/internal/manifest"
	"spinefetch/internal/services"
	"spinefetch/internal/tasks"
)

const defaultWorkers = 32

// Fetcher downloads one URL to a destination path.
type Fetcher interface {
	Download(ctx context.Context, url, dest string) error
}

// Normalizer renames and resizes a downloaded spine group.
type Normalizer interface {
	Normalize(ctx context.Context, in atlas.Files) (atlas.Files, atlas.Descriptor, error)
}

// Recorder persists run summaries and dead letters. *ledger.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, runID string, taskCount int, manifestPath string) error
	FinishRun(ctx context.Context, runID string, completed, failed int) error
	RecordFailure(ctx context.Context, f ledger.Failure) error
}

// Options configures a run. Agents are seeded into the manifest as empty
// objects, so agents without a single completed task still appear.
type Options struct {
	Workers      int
	ManifestPath string
	Agents       []string
	Progress     Progress
	Recorder     Recorder
	Logger       *slog.Logger
}

// Failure is a dead-lettered task.
type Failure struct {
	Task tasks.Task
	Kind string
	Err  error
}

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Manifest  manifest.Tree
	Total     int
	Completed int
	Failures  []Failure
	Duration  time.Duration
}

// Orchestrator drains task lists with a bounded worker pool.
type Orchestrator struct {
	fetcher    Fetcher
	normalizer Normalizer
	opts       Options
	logger     *slog.Logger
}

// New constructs an orchestrator.
func New(fetcher Fetcher, normalizer Normalizer, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}
	return &Orchestrator{
		fetcher:    fetcher,
		normalizer: normalizer,
		opts:       opts,
		logger:     logging.NewComponentLogger(opts.Logger, "download"),
	}
}

type outcome struct {
	task  tasks.Task
	value manifest.Value
	err   error
}

// Run processes every task and returns the assembled manifest. Individual
// task failures do not fail the run; they are reported in Result.Failures.
// The manifest is written to Options.ManifestPath unless the context was
// canceled, in which case Run returns the partial result and the context
// error.
func (o *Orchestrator) Run(ctx context.Context, list []tasks.Task) (Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	logger.Info("download run started",
		logging.Int("tasks", len(list)),
		logging.Int("workers", o.opts.Workers))
	if o.opts.Recorder != nil {
		if err := o.opts.Recorder.BeginRun(ctx, runID, len(list), o.opts.ManifestPath); err != nil {
			logging.WarnWithContext(logger, "ledger unavailable; run continues unrecorded", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "failures are only reported in this session"))
		}
	}

	result := Result{RunID: runID, Total: len(list)}
	tree := o.seed(list)
	o.opts.Progress.Start(len(list))

	outcomes := make(chan outcome, o.opts.Workers)
	aggregated := make(chan struct{})
	go func() {
		defer close(aggregated)
		done := 0
		for oc := range outcomes {
			done++
			if oc.err != nil {
				result.Failures = append(result.Failures, o.deadLetter(ctx, oc.task, oc.err))
			} else {
				tree.Set(oc.task.Key(), oc.value)
				result.Completed++
			}
			o.opts.Progress.Tick(done, len(list), oc.task, oc.err)
		}
	}()

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, task := range list {
		if ctx.Err() != nil {
			for _, skipped := range list[i:] {
				outcomes <- outcome{task: skipped, err: ctx.Err()}
			}
			break
		}
		g.Go(func() error {
			value, err := o.process(ctx, task)
			outcomes <- outcome{task: task, value: value, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)
	<-aggregated
	o.opts.Progress.Finish()

	slices.SortFunc(result.Failures, func(a, b Failure) int {
		return slices.Compare(a.Task.Key(), b.Task.Key())
	})
	result.Manifest = tree
	result.Duration = time.Since(started)

	if err := ctx.Err(); err != nil {
		o.finishLedger(context.WithoutCancel(ctx), result)
		logging.WarnWithContext(logger, "download run canceled", "run_canceled",
			logging.Int("completed", result.Completed),
			logging.Int("failed", len(result.Failures)),
			logging.String(logging.FieldImpact, "manifest not written"))
		return result, err
	}

	if o.opts.ManifestPath != "" {
		if err := manifest.WriteFile(o.opts.ManifestPath, tree); err != nil {
			o.finishLedger(ctx, result)
			return result, err
		}
	}
	o.finishLedger(ctx, result)

	logger.Info("download run finished",
		logging.Int("completed", result.Completed),
		logging.Int("failed", len(result.Failures)),
		logging.Duration("duration", result.Duration),
		logging.String("manifest", o.opts.ManifestPath))
	return result, nil
}

func (o *Orchestrator) seed(list []tasks.Task) manifest.Tree {
	tree := manifest.Tree{}
	for _, name := range o.opts.Agents {
		tree[name] = manifest.Node{}
	}
	for _, task := range list {
		if _, ok := tree[task.Agent]; !ok {
			tree[task.Agent] = manifest.Node{}
		}
	}
	return tree
}

func (o *Orchestrator) process(ctx context.Context, task tasks.Task) (manifest.Value, error) {
	ctx = services.WithTask(ctx, task.String())
	switch task.Kind {
	case tasks.KindHead:
		if err := o.fetcher.Download(ctx, task.URL, task.SavePath); err != nil {
			return nil, err
		}
		return manifest.Leaf(filepath.ToSlash(task.SavePath)), nil
	case tasks.KindSpineGroup:
		return o.processSpine(ctx, task)
	default:
		return nil, services.Wrap(services.ErrValidation, "download", "process",
			fmt.Sprintf("unknown task kind %d", task.Kind), nil)
	}
}

func (o *Orchestrator) processSpine(ctx context.Context, task tasks.Task) (manifest.Value, error) {
	var files atlas.Files
	for _, f := range task.Files {
		if err := o.fetcher.Download(ctx, f.URL, f.Path); err != nil {
			return nil, err
		}
		switch f.Ext {
		case ".png":
			files.PNG = f.Path
		case ".skel":
			files.Skel = f.Path
		case ".atlas":
			files.Atlas = f.Path
		}
	}
	if files.PNG == "" || files.Skel == "" || files.Atlas == "" {
		return nil, services.Wrap(services.ErrValidation, "download", "process",
			"spine group is missing a member file", nil)
	}

	final, _, err := o.normalizer.Normalize(ctx, files)
	if err != nil {
		return nil, err
	}
	node := manifest.Node{}
	for ext, path := range final.Map() {
		node[ext] = manifest.Leaf(filepath.ToSlash(path))
	}
	return node, nil
}

func (o *Orchestrator) deadLetter(ctx context.Context, task tasks.Task, err error) Failure {
	kind := services.FailureKind(err)
	taskCtx := services.WithTask(ctx, task.String())
	logging.ErrorWithContext(logging.WithContext(taskCtx, o.logger), "task dead-lettered", "task_failed",
		logging.String("kind", kind),
		logging.String("url", task.URL),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(kind)),
		logging.String(logging.FieldImpact, "asset missing from the manifest"))

	if o.opts.Recorder != nil {
		recErr := o.opts.Recorder.RecordFailure(context.WithoutCancel(ctx), ledger.Failure{
			RunID:   runIDFrom(ctx),
			TaskKey: task.String(),
			Kind:    kind,
			URL:     task.URL,
			Error:   err.Error(),
		})
		if recErr != nil {
			o.logger.Warn("failed to record dead letter", logging.Error(recErr))
		}
	}
	return Failure{Task: task, Kind: kind, Err: err}
}

func (o *Orchestrator) finishLedger(ctx context.Context, result Result) {
	if o.opts.Recorder == nil {
		return
	}
	if err := o.opts.Recorder.FinishRun(ctx, result.RunID, result.Completed, len(result.Failures)); err != nil {
		o.logger.Warn("failed to record run totals", logging.String(logging.FieldRunID, result.RunID), logging.Error(err))
	}
}

func hintFor(kind string) string {
	switch kind {
	case services.KindContent:
		return "the host served a malformed atlas or texture; refetching will not help"
	case services.KindNetwork:
		return "check connectivity to the asset host and rerun"
	case services.KindStorage:
		return "check free space and permissions of the save directory"
	case services.KindCanceled:
		return "run was interrupted; rerun to fetch the remaining assets"
	default:
		return "check logs for details"
	}
}

func runIDFrom(ctx context.Context) string {
	id, _ := services.RunIDFromContext(ctx)
	return id
}
