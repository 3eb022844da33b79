// consultas is the operator CLI: run, retry or inspect ingestion jobs
// against the same database the daemon uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AUX01-gsconsig/Consultas-CLT/internal/common"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/extract"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/normalize"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/pipeline"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/repository"
)

type cliEnv struct {
	cfg    *common.Config
	logger *slog.Logger
	jobs   repository.JobRepository
	ctrl   *pipeline.Controller
	close  func()
}

func setup(ctx context.Context) (*cliEnv, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := common.Load()
	if err != nil {
		return nil, err
	}

	db, pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	jobsRepo := repository.NewJobRepository(db, logger)
	recordsRepo := repository.NewRecordRepository(db, logger)
	extractor := extract.NewDirExtractor(cfg.Pipeline.ArtifactDir, logger)
	ctrl := pipeline.NewController(extractor, normalize.New(logger), jobsRepo, recordsRepo, &cfg.Pipeline, logger)

	return &cliEnv{
		cfg:    cfg,
		logger: logger,
		jobs:   jobsRepo,
		ctrl:   ctrl,
		close:  func() { repository.Close(db, pool, logger) },
	}, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func main() {
	root := &cobra.Command{
		Use:           "consultas",
		Short:         "Operate the CLT ingestion pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "process [id]",
		Short: "Run the next pending job, or a specific job by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			if len(args) == 0 {
				res, err := env.ctrl.RunNext(cmd.Context())
				if err != nil {
					return err
				}
				if res == nil {
					fmt.Println("no pending jobs")
					return nil
				}
				return printJSON(res)
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			res, err := env.ctrl.RunByID(cmd.Context(), id, false)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "reprocess <id>",
		Short: "Manually re-run a job regardless of its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			res, err := env.ctrl.RunByID(cmd.Context(), id, true)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show job counts and pending work",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			counts, err := env.jobs.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			pending, err := env.jobs.ListPending(cmd.Context(), env.cfg.Pipeline.AttemptLimit)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"counts":    counts,
				"claimable": len(pending),
			})
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
