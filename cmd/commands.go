package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/personapost-backend/internal/app"
	"github.com/yungbote/personapost-backend/internal/data/db"
	"github.com/yungbote/personapost-backend/internal/jobs/scheduler"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

const shutdownTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "personapost",
		Short:         "Persona post generation, approval and scheduled publishing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.LoadEnvFiles()
		},
	}
	root.AddCommand(
		newServeCmd(),
		newSchedulerCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newRunTaskCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the operator API and, unless disabled, the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Cfg.SchedulerEnabled && !noScheduler {
				a.StartScheduler(ctx)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- a.Run() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.Log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Serve the API without running periodic tasks")
	return cmd
}

func newSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run only the periodic tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			a.StartScheduler(ctx)
			<-ctx.Done()
			a.Log.Info("scheduler stopping")
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(log *logger.Logger, svc *db.Service) error {
				if err := db.AutoMigrateAll(svc.DB()); err != nil {
					return err
				}
				log.Info("migration complete")
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load personas and manual topics from a YAML file",
		Example: `  # Seed from the default file
  personapost seed --file seed.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := db.LoadSeedFile(path)
			if err != nil {
				return err
			}
			return withDB(func(log *logger.Logger, svc *db.Service) error {
				if err := db.AutoMigrateAll(svc.DB()); err != nil {
					return err
				}
				res, err := db.ApplySeed(svc.DB(), f)
				if err != nil {
					return err
				}
				log.Info("seed complete", "personas_created", res.PersonasCreated, "topics_created", res.TopicsCreated)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "file", "seed.yaml", "Path to the seed file")
	return cmd
}

func newRunTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-task <task>",
		Short: "Run one scheduler task immediately and exit",
		Long: fmt.Sprintf("Run one scheduler task immediately and exit.\n\nTasks: %s, %s, %s, %s, %s",
			scheduler.TaskSweepPublish, scheduler.TaskGenerate, scheduler.TaskTrendSync,
			scheduler.TaskCredentialRefresh, scheduler.TaskTopicCleanup),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Services.Scheduler.RunTask(ctx, args[0])
		},
	}
}

func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(ctx, cfg)
}

func withDB(fn func(log *logger.Logger, svc *db.Service) error) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	svc, err := db.Open(log, cfg.DB)
	if err != nil {
		return err
	}
	return errors.Join(fn(log, svc), svc.Close())
}
