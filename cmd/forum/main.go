package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/emilythestrangee/campus-forum/backend/internal/config"
	"github.com/emilythestrangee/campus-forum/backend/internal/database"
	"github.com/emilythestrangee/campus-forum/backend/internal/logger"
	"github.com/emilythestrangee/campus-forum/backend/internal/server"
	"github.com/emilythestrangee/campus-forum/backend/internal/votes"
)

// app holds what every command needs.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  database.Service
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	_ = a.db.Close()
	_ = a.log.Sync()
}

// withApp wraps a command action with setup and teardown.
func withApp(fn func(c *cli.Context, a *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()
		return fn(c, a)
	}
}

func serve(c *cli.Context, a *app) error {
	if c.Bool("migrate") {
		if err := a.db.Migrate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	svc := votes.NewService(a.db.GetDB(), a.log)
	return server.NewServer(a.cfg, a.db, svc, a.log).Run(ctx)
}

func migrate(_ *cli.Context, a *app) error {
	return a.db.Migrate()
}

func seed(c *cli.Context, a *app) error {
	if err := a.db.Migrate(); err != nil {
		return err
	}
	if err := database.Seed(c.Context, a.db.GetDB()); err != nil {
		return err
	}
	a.log.Info("database seeded")
	return nil
}

func reconcile(c *cli.Context, a *app) error {
	svc := votes.NewService(a.db.GetDB(), a.log)

	if !c.IsSet("kind") {
		if c.IsSet("id") {
			return cli.Exit("--id needs --kind", 2)
		}
		fixed, err := svc.ReconcileKinds(c.Context, votes.Kinds...)
		if err != nil {
			return err
		}
		for _, k := range votes.Kinds {
			fmt.Fprintf(c.App.Writer, "%s: %d corrected\n", k, fixed[k])
		}
		return nil
	}

	kind, err := votes.ParseKind(c.String("kind"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if id := c.Int("id"); id > 0 {
		count, err := svc.Reconcile(c.Context, id, kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s %d: %d votes\n", kind, id, count)
		return nil
	}

	fixed, err := svc.ReconcileAll(c.Context, kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: %d corrected\n", kind, fixed)
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "forum",
		Usage: "university discussion forum backend",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "migrate the schema before serving", Value: true},
				},
				Action: withApp(serve),
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: withApp(migrate),
			},
			{
				Name:   "seed",
				Usage:  "insert the demo accounts and posts",
				Action: withApp(seed),
			},
			{
				Name:  "reconcile",
				Usage: "recompute vote counts from the vote ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Usage: "post or comment; all kinds when omitted"},
					&cli.IntFlag{Name: "id", Usage: "reconcile a single target"},
				},
				Action: withApp(reconcile),
			},
		},
	}
}

func main() {
	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "forum:", err)
		os.Exit(1)
	}
}
