package main

import (
	"context"
	"errors"

	coursebuilder "learning-path/agents/course-builder"
	"learning-path/shared/api"
	"learning-path/shared/email"
	"learning-path/shared/monitoring"
	"learning-path/shared/scheduler"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Regenerate the configured catalog on a cron schedule",
	Long:  "Regenerate every course in the catalog on the configured schedule. The HTTP API, including /health and /status, is served alongside.",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

var scheduleOnce bool

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleOnce, "once", false, "Run the catalog once and exit")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}

	var sender coursebuilder.DigestSender
	if a.cfg.Email.Enabled() {
		sender = email.NewSender(&a.cfg.Email)
	}

	monitor := monitoring.NewMonitor(a.log)
	agent := coursebuilder.NewCourseBuilderAgent(a.cfg, gen, sender, a.log)
	s := scheduler.New(a.cfg.Schedule, agent, monitor, a.log)

	if scheduleOnce {
		a.log.Info("Running catalog once")
		if err := agent.Initialize(); err != nil {
			return err
		}
		return s.RunOnce(ctx)
	}

	server := api.NewServer(a.cfg, gen, a.store, monitor, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Start(gctx) })
	g.Go(func() error { return server.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
