package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/db"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
	"github.com/example/room-booker/internal/domain/user"
	"github.com/example/room-booker/internal/infrastructure/memory"
	"github.com/example/room-booker/internal/infrastructure/mongo"
	"github.com/example/room-booker/internal/infrastructure/postgres"
	"github.com/example/room-booker/internal/infrastructure/redis"
	"github.com/example/room-booker/internal/logging"
	"github.com/example/room-booker/internal/migrate"
)

// catalogWriter is implemented by the durable catalogs.
type catalogWriter interface {
	UpsertRoom(ctx context.Context, rm room.Room) error
	UpsertSection(ctx context.Context, s room.Section) error
}

// backend is the storage picked by STORE_DRIVER.
type backend struct {
	Catalog      reservation.Catalog
	Reservations reservation.Store
	Users        user.Repository
	Writer       catalogWriter // nil for the memory driver
	Ready        func(ctx context.Context) error
	Close        func()
}

type openOptions struct {
	// migrate applies pending postgres migrations or mongo indexes.
	migrate bool
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger, opts openOptions) (*backend, error) {
	switch cfg.StoreDriver {
	case "postgres":
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := d.Ping(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if opts.migrate {
			if err := migrate.Up(ctx, d, log); err != nil {
				d.Close()
				return nil, err
			}
		}
		cat := postgres.NewCatalogRepo(d)
		return &backend{
			Catalog:      cat,
			Reservations: postgres.NewReservationRepo(d),
			Users:        postgres.NewUserRepo(d),
			Writer:       cat,
			Ready:        d.Ping,
			Close:        d.Close,
		}, nil

	case "mongo":
		m, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if opts.migrate {
			if err := m.EnsureIndexes(ctx); err != nil {
				_ = m.Close(context.Background())
				return nil, fmt.Errorf("mongo indexes: %w", err)
			}
		}
		cat := mongo.NewCatalogRepo(m)
		return &backend{
			Catalog:      cat,
			Reservations: mongo.NewReservationRepo(m),
			Users:        mongo.NewUserRepo(m),
			Writer:       cat,
			Ready:        m.Ping,
			Close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := m.Close(ctx); err != nil {
					log.Warn("mongo disconnect", zap.Error(err))
				}
			},
		}, nil

	case "memory":
		if cfg.CatalogFile == "" {
			return nil, errors.New("CATALOG_FILE is required with STORE_DRIVER=memory")
		}
		rooms, sections, err := config.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		cat, err := memory.NewCatalog(rooms, sections)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", cfg.CatalogFile, err)
		}
		log.Warn("using in-memory storage; reservations and users are lost on exit")
		return &backend{
			Catalog:      cat,
			Reservations: memory.NewStore(),
			Users:        memory.NewUserRepo(),
			Close:        func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openSessions returns the session store picked by SESSION_BACKEND and a closer.
func openSessions(ctx context.Context, cfg config.Config) (booking.SessionStore, func(), error) {
	if cfg.SessionBackend != "redis" {
		return booking.NewMemorySessionStore(), func() {}, nil
	}
	rc := redis.DefaultConfig()
	rc.Addr = cfg.RedisAddr
	rc.Password = cfg.RedisPassword
	rc.DB = cfg.RedisDB
	client, err := redis.Connect(ctx, rc)
	if err != nil {
		return nil, nil, err
	}
	return redis.NewSessionStore(client), func() { _ = client.Close() }, nil
}

func newMachine(cfg config.Config, b *backend, log *zap.Logger) *booking.Machine {
	engine := availability.NewEngine(b.Reservations, cfg.Location)
	m := booking.NewMachine(engine, b.Reservations, cfg.Location, log)
	m.WindowDays = cfg.WindowDays
	m.CommitTimeout = cfg.CommitTimeout
	return m
}

// loadConfig reads the environment and builds the logger every command uses.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}
