package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"spinefetch/internal/atlas"
	"spinefetch/internal/config"
	"spinefetch/internal/download"
	"spinefetch/internal/fetch"
	"spinefetch/internal/ledger"
	"spinefetch/internal/logging"
	"spinefetch/internal/preflight"
	"spinefetch/internal/tasks"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var agentsPath string
	var outPath string
	var workers int
	var models []string
	var strict bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download head icons and spine groups listed in a scraper export",
		Long: `Download head icons and spine groups listed in a scraper export.

Spine groups are renamed after the texture declared in their atlas and the
texture is resized to the declared size. The resulting manifest replaces the
vendor manifest (saves.json in the resource directory) unless --out is given.
Tasks that fail after all retries are listed and recorded in the run ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(agentsPath) == "" {
				return errors.New("--agents is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				lines := make([]string, 0, len(failed))
				for _, r := range failed {
					lines = append(lines, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				}
				return fmt.Errorf("preflight failed:\n  %s", strings.Join(lines, "\n  "))
			}

			agents, err := tasks.LoadAgents(agentsPath)
			if err != nil {
				return err
			}
			filter := models
			if len(filter) == 0 {
				filter = cfg.Download.Models
			}
			list := tasks.Enumerate(agents, tasks.Options{SaveRoot: cfg.Paths.SaveDir, Models: filter})
			if len(list) > 0 {
				if host := preflight.CheckAssetHost(cmd.Context(), list[0].URL, cfg.Download.UserAgent); !host.Passed {
					logging.WarnWithContext(logger, "asset host check failed", "preflight_host",
						logging.String("detail", host.Detail),
						logging.String(logging.FieldImpact, "downloads may be slow or dead-lettered"))
				}
			}

			store, err := ledger.Open(cfg.Paths.LedgerPath)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			manifestPath := cfg.SavesManifestPath()
			if strings.TrimSpace(outPath) != "" {
				if manifestPath, err = config.ExpandPath(outPath); err != nil {
					return err
				}
			}
			if workers <= 0 {
				workers = cfg.Download.Workers
			}

			names := make([]string, 0, len(agents))
			for _, agent := range agents {
				names = append(names, agent.Name)
			}

			orchestrator := download.New(newFetchClient(cfg, logger), atlas.NewNormalizer(logger), download.Options{
				Workers:      workers,
				ManifestPath: manifestPath,
				Agents:       names,
				Progress:     newProgressSink(cmd.ErrOrStderr(), logger),
				Recorder:     store,
				Logger:       logger,
			})
			result, runErr := orchestrator.Run(cmd.Context(), list)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRunResult(result, manifestPath, runErr == nil))
			if len(result.Failures) > 0 {
				fmt.Fprintln(out, renderFailures(result.Failures))
			}
			if runErr != nil {
				return runErr
			}
			if strict && len(result.Failures) > 0 {
				return fmt.Errorf("%d of %d tasks failed (run %s)", len(result.Failures), result.Total, result.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentsPath, "agents", "a", "", "Scraper export (JSON array of agents)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Manifest destination (defaults to saves.json in the resource directory)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent downloads (defaults to download.workers)")
	cmd.Flags().StringArrayVarP(&models, "model", "m", nil, "Only fetch spine models with this name (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any task is dead-lettered")
	return cmd
}

func newFetchClient(cfg *config.Config, logger *slog.Logger) *fetch.Client {
	base, maxDelay := cfg.RetryBackoff()
	clientCfg := fetch.Config{
		UserAgent:          cfg.Download.UserAgent,
		Timeout:            cfg.RequestTimeout(),
		InsecureSkipVerify: cfg.Download.InsecureSkipVerify,
	}
	return fetch.NewClient(clientCfg,
		fetch.WithRetryMaxAttempts(cfg.Download.MaxAttempts),
		fetch.WithRetryBackoff(base, maxDelay),
		fetch.WithLogger(logger),
	)
}

func renderRunResult(result download.Result, manifestPath string, written bool) string {
	manifestValue := manifestPath
	if !written {
		manifestValue = "not written"
	}
	return renderKeyValues([][2]string{
		{"Run", result.RunID},
		{"Tasks", strconv.Itoa(result.Total)},
		{"Completed", strconv.Itoa(result.Completed)},
		{"Failed", strconv.Itoa(len(result.Failures))},
		{"Duration", formatDuration(result.Duration)},
		{"Manifest", manifestValue},
	})
}

func renderFailures(failures []download.Failure) string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Task.String(), f.Kind, oneLine(f.Err.Error())})
	}
	return renderTable([]string{"Task", "Kind", "Error"}, rows, nil)
}
