package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/room-booker/internal/auth"
	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/scheduler"
	"github.com/example/room-booker/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI and the session sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			b, err := openBackend(ctx, cfg, log, openOptions{migrate: migrateUp})
			if err != nil {
				return err
			}
			defer b.Close()

			sessions, closeSessions, err := openSessions(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeSessions()

			registry := booking.NewRegistry(b.Catalog, newMachine(cfg, b, log), sessions, cfg.IdleTimeout, log)

			// sweeper
			s := &scheduler.Scheduler{
				Sessions: registry,
				Interval: cfg.SweepInterval,
				Logger:   log.Named("sweeper"),
			}
			go func() { _ = s.Run(ctx) }()

			// web
			ws := &web.Server{
				Auth:          auth.NewStore(b.Users, cfg.CookieHashKey, cfg.CookieBlockKey),
				Bookings:      registry,
				Catalog:       b.Catalog,
				Reservations:  b.Reservations,
				Location:      cfg.Location,
				Logger:        log.Named("web"),
				Ready:         b.Ready,
				RatePerMinute: cfg.RatePerMinute,
			}
			log.Info("starting",
				zap.String("store", cfg.StoreDriver),
				zap.String("sessions", cfg.SessionBackend),
				zap.String("timezone", cfg.Location.String()),
			)
			return web.Start(ctx, cfg.ListenAddr, ws.Routes(), log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
