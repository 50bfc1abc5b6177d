package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"spinefetch/internal/download"
	"spinefetch/internal/logging"
	"spinefetch/internal/tasks"
)

// newProgressSink draws a progress bar on terminals and falls back to
// sampled log lines when output is redirected.
func newProgressSink(w io.Writer, logger *slog.Logger) download.Progress {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return &barProgress{w: f}
	}
	return &logProgress{logger: logger, sampler: logging.NewProgressSampler(10)}
}

type barProgress struct {
	w      io.Writer
	bar    *progressbar.ProgressBar
	failed int
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionFullWidth(),
	)
}

func (p *barProgress) Tick(_, _ int, _ tasks.Task, err error) {
	if p.bar == nil {
		return
	}
	if err != nil {
		p.failed++
		p.bar.Describe(fmt.Sprintf("downloading (%d failed)", p.failed))
	}
	_ = p.bar.Add(1)
}

func (p *barProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.w)
}

type logProgress struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	failed  int
}

func (p *logProgress) Start(total int) {
	p.sampler.Reset()
	p.failed = 0
	p.logger.Info("download progress", logging.Int("done", 0), logging.Int("total", total))
}

func (p *logProgress) Tick(done, total int, _ tasks.Task, err error) {
	if err != nil {
		p.failed++
	}
	if !p.sampler.ShouldLog(done, total) {
		return
	}
	p.logger.Info("download progress",
		logging.Int("done", done),
		logging.Int("total", total),
		logging.Int("failed", p.failed),
		logging.String("percent", fmt.Sprintf("%d%%", done*100/total)))
}

func (p *logProgress) Finish() {}
