package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/winning-app/winning/api"
	"github.com/winning-app/winning/config"
	"github.com/winning-app/winning/planner"
	"github.com/winning-app/winning/store/sqlite"
)

// app is the wiring shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *sqlite.Store
	service *planner.Service
	handler *api.Handler
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "winning",
		Short: "Goals, habits and planners, shared with your circle",
		Long: `Winning is a productivity planner: long-term goals with milestones,
monthly habit trackers, morning and evening routines, day/week/month
planners and a feed of wins, shareable with small accountability circles.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./winning.yaml)")
	flags.String("db", "", "SQLite database path, \":memory:\" for in-memory")
	flags.String("timezone", "", "IANA timezone that decides today")
	flags.String("first-weekday", "", "first column of month grids: sunday or monday")
	flags.String("log-level", "", "debug, info, warn or error")
	bind(v, flags.Lookup("db"), "db")
	bind(v, flags.Lookup("timezone"), "timezone")
	bind(v, flags.Lookup("first-weekday"), "first_weekday")
	bind(v, flags.Lookup("log-level"), "log_level")

	load := func() (*app, error) { return openApp(v, cfgFile) }
	loadConfig := func() (*config.Config, error) { return config.Load(v, cfgFile) }

	root.AddCommand(newServeCmd(v, load))
	root.AddCommand(newCalendarCmd(loadConfig))
	root.AddCommand(newReconcileCmd(load))
	root.AddCommand(newSeedCmd(load))
	return root
}

func openApp(v *viper.Viper, cfgFile string) (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}

	var opts []sqlite.Option
	if cfg.TopOutcomesArray {
		opts = append(opts, sqlite.WithTopOutcomesArray())
	}
	store, err := sqlite.New(cfg.DBPath, opts...)
	if err != nil {
		return nil, err
	}

	svc := planner.NewService(store, cal, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: svc,
		handler: api.NewHandler(svc, store, logger),
	}, nil
}
