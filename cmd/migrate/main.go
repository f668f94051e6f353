package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/dbmigrate"
	"github.com/fdg312/preppair/internal/logger"
)

// Globals are shared by every subcommand.
type Globals struct {
	RequireDirect bool   `help:"Only accept DATABASE_URL_DIRECT for Postgres."`
	SQLitePath    string `help:"Override SQLITE_PATH." type:"path" name:"sqlite"`
}

type runContext struct {
	ctx    context.Context
	cfg    *config.Config
	log    *logger.Logger
	global *Globals
}

func (rc *runContext) run(command string) error {
	if rc.global.SQLitePath != "" {
		rc.cfg.SQLitePath = rc.global.SQLitePath
	}

	target, err := dbmigrate.SelectTarget(rc.cfg, rc.global.RequireDirect)
	if err != nil {
		return err
	}
	if target.Warning != "" {
		rc.log.Warn("migrate", "warning", target.Warning)
	}
	rc.log.Info("migrate", "command", command, "dialect", target.Dialect, "using", target.Source)

	if err := dbmigrate.Run(rc.ctx, command, target.Dialect, target.DSN, rc.log); err != nil {
		return err
	}
	rc.log.Info("migrate completed", "command", command)
	return nil
}

type UpCmd struct{}

func (c *UpCmd) Run(rc *runContext) error { return rc.run("up") }

type DownCmd struct{}

func (c *DownCmd) Run(rc *runContext) error { return rc.run("down") }

type StatusCmd struct{}

func (c *StatusCmd) Run(rc *runContext) error { return rc.run("status") }

type VersionCmd struct{}

func (c *VersionCmd) Run(rc *runContext) error { return rc.run("version") }

var CLI struct {
	Globals

	Up      UpCmd      `cmd:"" help:"Apply all pending migrations."`
	Down    DownCmd    `cmd:"" help:"Roll back the latest migration."`
	Status  StatusCmd  `cmd:"" help:"Show applied and pending migrations."`
	Version VersionCmd `cmd:"" help:"Print the current schema version."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("migrate"),
		kong.Description("Apply preppair schema migrations to Postgres or SQLite."),
		kong.UsageOnError(),
	)

	cfg := config.Load()
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = kctx.Run(&runContext{ctx: ctx, cfg: cfg, log: log, global: &CLI.Globals})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
